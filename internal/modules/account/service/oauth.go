package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/modules/account/repository"
	session "anoa.com/handchatter/internal/modules/session/service"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/password"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const (
	kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

	// OAuthStateTTL bounds both the stored state and the browser cookie
	// carrying it.
	OAuthStateTTL = 10 * time.Minute
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthService signs students in through Kakao.
type OAuthService interface {
	// KakaoLoginURL returns the authorize URL and the state the caller must
	// pin to the browser starting the flow.
	KakaoLoginURL(ctx context.Context) (url, state string, err error)
	// KakaoCallback returns a session token for the Kakao user, creating a
	// student account on first login. browserState is the state pinned by
	// KakaoLoginURL and must equal the state Kakao echoed back.
	KakaoCallback(ctx context.Context, browserState, state, code string) (string, error)
}

type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type oauthService struct {
	repo        repository.AccountRepository
	sessions    session.SessionService
	rdb         *redis.Client
	kakao       *oauth2.Config
	userInfoURL string
}

func NewOAuthService(repo repository.AccountRepository, sessions session.SessionService, rdb *redis.Client, cfg KakaoConfig) OAuthService {
	return &oauthService{
		repo:     repo,
		sessions: sessions,
		rdb:      rdb,
		kakao: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"profile_nickname", "profile_image", "account_email"},
			Endpoint:     kakaoEndpoint,
		},
		userInfoURL: kakaoUserInfoURL,
	}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

type kakaoUser struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
	KakaoAccount struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (u kakaoUser) nickname() string {
	if n := strings.TrimSpace(u.KakaoAccount.Profile.Nickname); n != "" {
		return n
	}
	return strings.TrimSpace(u.Properties.Nickname)
}

func (u kakaoUser) profileImage() string {
	if u.KakaoAccount.Profile.ProfileImageURL != "" {
		return u.KakaoAccount.Profile.ProfileImageURL
	}
	return u.Properties.ProfileImage
}

func (s *oauthService) KakaoLoginURL(ctx context.Context) (string, string, error) {
	state := uuid.NewString()
	if err := s.rdb.Set(ctx, stateKey(state), "1", OAuthStateTTL).Err(); err != nil {
		return "", "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return s.kakao.AuthCodeURL(state), state, nil
}

func (s *oauthService) KakaoCallback(ctx context.Context, browserState, state, code string) (string, error) {
	if state == "" || code == "" {
		return "", apperror.Wrap(apperror.ErrBadRequest, "missing oauth state or code")
	}
	if subtle.ConstantTimeCompare([]byte(browserState), []byte(state)) != 1 {
		return "", apperror.Wrap(apperror.ErrUnauthorized, "oauth state does not belong to this browser")
	}

	deleted, err := s.rdb.Del(ctx, stateKey(state)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check oauth state: %w", err)
	}
	if deleted == 0 {
		return "", apperror.Wrap(apperror.ErrUnauthorized, "oauth state is invalid or expired")
	}

	token, err := s.kakao.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}

	user, err := s.fetchUser(ctx, token)
	if err != nil {
		return "", err
	}

	account, err := s.findOrCreate(ctx, user)
	if err != nil {
		return "", err
	}

	return s.sessions.Create(ctx, entity.Principal{
		Role:       account.Role,
		AccountIdx: account.Idx,
		LoginID:    account.LoginID,
	})
}

func (s *oauthService) fetchUser(ctx context.Context, token *oauth2.Token) (*kakaoUser, error) {
	client := s.kakao.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kakao user info returned status %d", resp.StatusCode)
	}

	var user kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("kakao user info has no id")
	}
	return &user, nil
}

func (s *oauthService) findOrCreate(ctx context.Context, user *kakaoUser) (*entity.Account, error) {
	providerID := strconv.FormatInt(user.ID, 10)

	account, err := s.repo.FindByProvider(ctx, entity.ProviderKakao, providerID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	loginID := "kakao_" + providerID
	nickname := user.nickname()
	if nickname == "" {
		nickname = loginID
	}
	taken, err := s.repo.ExistsNickname(ctx, nickname, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		nickname = nickname + "_" + uuid.NewString()[:4]
	}

	// Kakao accounts never log in with a password.
	hash, err := password.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	account = &entity.Account{
		Role:         entity.RoleStudent,
		LoginID:      loginID,
		Nickname:     nickname,
		PasswordHash: hash,
		Email:        strings.ToLower(user.KakaoAccount.Email),
		Provider:     entity.ProviderKakao,
		ProviderID:   &providerID,
		ProfileImg:   entity.DefaultProfileImg,
	}
	if img := user.profileImage(); img != "" {
		account.ProfileImg = img
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	accountLog().WithField("idx", account.Idx).Info("kakao account created")
	return account, nil
}
