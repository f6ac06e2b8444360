package handler

import (
	"net/http"
	"time"

	"anoa.com/handchatter/internal/entity"
	"anoa.com/handchatter/internal/middleware"
	"anoa.com/handchatter/internal/modules/account/dto"
	account "anoa.com/handchatter/internal/modules/account/service"
	signupRepo "anoa.com/handchatter/internal/modules/signup/repository"
	"anoa.com/handchatter/pkg/apperror"
	commonDto "anoa.com/handchatter/pkg/dto"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accounts     account.AccountService
	availability account.AvailabilityService
	tickets      signupRepo.TicketStore
	cookies      middleware.CookieWriter
	sessionTTL   time.Duration
}

func NewAccountHandler(
	accounts account.AccountService,
	availability account.AvailabilityService,
	tickets signupRepo.TicketStore,
	cookies middleware.CookieWriter,
	sessionTTL time.Duration,
) *AccountHandler {
	return &AccountHandler{
		accounts:     accounts,
		availability: availability,
		tickets:      tickets,
		cookies:      cookies,
		sessionTTL:   sessionTTL,
	}
}

// idKey is the login response key naming the identifier for a role.
func idKey(role entity.Role) string {
	if role == entity.RoleTutor {
		return "tutorId"
	}
	return "studentId"
}

// IssueTicket handles POST /api/signup/ticket. A new ticket replaces any
// previous one held by the client.
func (h *AccountHandler) IssueTicket(c *gin.Context) {
	if old, err := c.Cookie(middleware.SignupCookie); err == nil && old != "" {
		_ = h.tickets.Consume(c.Request.Context(), old)
	}

	ticketID, err := h.tickets.Issue(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	h.cookies.Set(c, middleware.SignupCookie, ticketID, h.tickets.TTL())
	response.Message(c, "signup started", nil)
}

// CheckID handles GET /api/checkStudentId and /api/checkTutorId. Identifiers
// are unique across both roles so the role only selects the route.
func (h *AccountHandler) CheckID(c *gin.Context) {
	var query dto.CheckIDQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err)
		return
	}
	h.checkAvailable(c, signupRepo.FieldID, query.ID)
}

// CheckNickname handles GET /api/checkStudentNickname and /api/checkTutorNickname.
func (h *AccountHandler) CheckNickname(c *gin.Context) {
	var query dto.CheckNicknameQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err)
		return
	}
	h.checkAvailable(c, signupRepo.FieldNickname, query.Nickname)
}

func (h *AccountHandler) checkAvailable(c *gin.Context, field signupRepo.Field, value string) {
	ticketID, _ := c.Cookie(middleware.SignupCookie)

	available, err := h.availability.CheckAvailable(c.Request.Context(), field, value, ticketID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AvailabilityResponse{Available: available})
}

// Signup handles POST /api/student (JSON) and POST /api/tutor (multipart
// with the credential document in the "file" field).
func (h *AccountHandler) Signup(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input dto.SignupInput
		if err := c.ShouldBind(&input); err != nil {
			response.ValidationError(c, err)
			return
		}

		var document *commonDto.UploadFile
		if role == entity.RoleTutor {
			if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
				file, err := fileHeader.Open()
				if err != nil {
					response.ResponseError(c, apperror.Wrap(apperror.ErrBadRequest, "failed to read uploaded document"))
					return
				}
				defer file.Close()

				document = &commonDto.UploadFile{
					Reader:      file,
					FileName:    fileHeader.Filename,
					ContentType: fileHeader.Header.Get("Content-Type"),
					Size:        fileHeader.Size,
				}
			}
		}

		ticketID, _ := c.Cookie(middleware.SignupCookie)
		if err := h.accounts.Signup(c.Request.Context(), role, input, ticketID, document); err != nil {
			response.ResponseError(c, err)
			return
		}

		h.cookies.Clear(c, middleware.SignupCookie)
		response.Message(c, "signup complete", nil)
	}
}

// Login handles POST /api/loginStudent and /api/loginTutor.
func (h *AccountHandler) Login(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input dto.LoginInput
		if err := c.ShouldBind(&input); err != nil {
			response.ResponseError(c, account.ErrBlankInput)
			return
		}

		result, err := h.accounts.Login(c.Request.Context(), role, input)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		h.cookies.Set(c, middleware.SessionCookie, result.Token, h.sessionTTL)
		c.JSON(http.StatusOK, gin.H{
			"isLogin":      true,
			idKey(role):    result.Principal.LoginID,
			"search_token": result.SearchToken,
		})
	}
}

// Logout handles POST /api/logout.
func (h *AccountHandler) Logout(c *gin.Context) {
	token := response.GetSessionToken(c)
	if token == "" {
		response.ResponseError(c, apperror.ErrUnauthorized)
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), token); err != nil {
		response.ResponseError(c, err)
		return
	}

	h.cookies.Clear(c, middleware.SessionCookie)
	response.Message(c, "logged out", nil)
}

// GetInfo handles GET /api/userInfo.
func (h *AccountHandler) GetInfo(c *gin.Context) {
	principal, err := response.GetPrincipal(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	acc, err := h.accounts.GetInfo(c.Request.Context(), principal)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if acc.IsTutor() {
		c.JSON(http.StatusOK, gin.H{"tuterInfo": []dto.TutorInfo{dto.NewTutorInfo(acc)}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"studentInfo": []dto.StudentInfo{dto.NewStudentInfo(acc)}})
}

// EditProfile handles PATCH /api/studentProfile and /api/tutorProfile. A new
// profile image may be sent in the "image" multipart field.
func (h *AccountHandler) EditProfile(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := response.GetPrincipal(c)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		var input dto.EditProfileInput
		if err := c.ShouldBind(&input); err != nil {
			response.ValidationError(c, err)
			return
		}

		var image *commonDto.UploadFile
		if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				response.ResponseError(c, apperror.Wrap(apperror.ErrBadRequest, "failed to read uploaded image"))
				return
			}
			defer file.Close()

			image = &commonDto.UploadFile{
				Reader:      file,
				FileName:    fileHeader.Filename,
				ContentType: fileHeader.Header.Get("Content-Type"),
				Size:        fileHeader.Size,
			}
		}

		if err := h.accounts.EditProfile(c.Request.Context(), role, principal, input, image); err != nil {
			response.ResponseError(c, err)
			return
		}

		response.Message(c, "profile updated", nil)
	}
}

// ChangePassword handles PATCH /api/editStudentPassword and /api/editTutorPassword.
func (h *AccountHandler) ChangePassword(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := response.GetPrincipal(c)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		var input dto.ChangePasswordInput
		if err := c.ShouldBind(&input); err != nil {
			response.ValidationError(c, err)
			return
		}

		if err := h.accounts.ChangePassword(c.Request.Context(), role, principal, input); err != nil {
			response.ResponseError(c, err)
			return
		}

		response.Message(c, "password changed", nil)
	}
}

// Delete handles DELETE /api/student and /api/tutor.
func (h *AccountHandler) Delete(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := response.GetPrincipal(c)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		var input dto.DeleteAccountInput
		if err := c.ShouldBind(&input); err != nil {
			response.ValidationError(c, err)
			return
		}

		result, err := h.accounts.Delete(c.Request.Context(), role, principal, input)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		h.cookies.Clear(c, middleware.SessionCookie)
		response.Message(c, "account deleted", gin.H{"session_cleared": result.SessionCleared})
	}
}
