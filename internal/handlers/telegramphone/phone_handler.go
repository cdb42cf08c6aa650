// internal/handlers/telegramphone/phone_handler.go
package telegramphone

import (
	"errors"
	"fmt"
	"net/http"

	"almudeer-service/internal/domain/telegramphone"
	"almudeer-service/internal/middleware"
	xerrors "almudeer-service/internal/pkg/errors"
	"almudeer-service/internal/pkg/response"
	service "almudeer-service/internal/service/telegramphone"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fixed localized messages. Raw provider or database error text never
// reaches the client.
const (
	msgCodeSentFmt     = "تم إرسال كود التحقق إلى Telegram الخاص برقم %s"
	msgVerified        = "تم ربط رقم Telegram بنجاح"
	msgConnectionOK    = "الاتصال ناجح"
	msgDisconnected    = "تم قطع الاتصال بنجاح"
	msgMessageSent     = "تم إرسال الرسالة بنجاح"
	msgInvalidInput    = "بيانات غير صالحة"
	msgInvalidCode     = "كود التحقق غير صحيح"
	msgCodeExpired     = "انتهت صلاحية كود التحقق. يرجى طلب كود جديد"
	msgLoginExpired    = "انتهت صلاحية طلب تسجيل الدخول. يرجى طلب كود جديد"
	msgHandleMismatch  = "حدث تعارض في طلب تسجيل الدخول. يرجى طلب كود جديد"
	msgTwoFactor       = "حسابك محمي بكلمة مرور ثنائية (2FA). هذه الميزة غير مدعومة حالياً"
	msgPhoneUnoccupied = "هذا الرقم غير مسجل في Telegram"
	msgFloodWaitFmt    = "تم إرسال عدد كبير من الطلبات. يرجى الانتظار %d ثانية"
	msgRateLimited     = "تم تجاوز الحد المسموح من الطلبات. يرجى المحاولة لاحقاً"
	msgNoActiveSession = "لا توجد جلسة نشطة"
	msgSessionExpired  = "انتهت صلاحية الجلسة. يرجى إعادة ربط الرقم"
	msgProviderError   = "حدث خطأ في الاتصال بخدمة Telegram. يرجى المحاولة مرة أخرى"
	msgInternalError   = "حدث خطأ غير متوقع. يرجى المحاولة مرة أخرى"
)

type PhoneHandler struct {
	phoneService *service.PhoneService
	logger       *zap.Logger
}

func NewPhoneHandler(phoneService *service.PhoneService, logger *zap.Logger) *PhoneHandler {
	return &PhoneHandler{
		phoneService: phoneService,
		logger:       logger,
	}
}

// StartLogin requests a verification code for the business's phone number.
func (h *PhoneHandler) StartLogin(c *gin.Context) {
	licenseID := middleware.MustGetLicenseID(c)

	var req telegramphone.StartLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidInput)
		return
	}

	sessionID, phoneNumber, err := h.phoneService.StartLogin(c.Request.Context(), licenseID, req.PhoneNumber)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, telegramphone.StartLoginResponse{
		Success:     true,
		Message:     fmt.Sprintf(msgCodeSentFmt, phoneNumber),
		SessionID:   sessionID,
		PhoneNumber: phoneNumber,
	})
}

// VerifyCode completes the login and links the phone session to the license.
func (h *PhoneHandler) VerifyCode(c *gin.Context) {
	licenseID := middleware.MustGetLicenseID(c)

	var req telegramphone.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidInput)
		return
	}

	user, configID, err := h.phoneService.VerifyCode(c.Request.Context(), licenseID, req.PhoneNumber, req.Code, req.SessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, telegramphone.VerifyCodeResponse{
		Success:  true,
		Message:  msgVerified,
		User:     user,
		ConfigID: configID,
	})
}

// TestConnection re-authenticates the stored session and returns the profile.
func (h *PhoneHandler) TestConnection(c *gin.Context) {
	licenseID := middleware.MustGetLicenseID(c)

	user, err := h.phoneService.TestConnection(c.Request.Context(), licenseID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, telegramphone.TestConnectionResponse{
		Success: true,
		Message: msgConnectionOK,
		User:    user,
	})
}

// GetConfig returns the sanitized session view for the license.
func (h *PhoneHandler) GetConfig(c *gin.Context) {
	licenseID := middleware.MustGetLicenseID(c)

	view, err := h.phoneService.GetConfig(c.Request.Context(), licenseID)
	if errors.Is(err, xerrors.ErrNoActiveSession) {
		// The frontend treats a missing config as "not connected yet",
		// so this is a 200 with a null config, not an error.
		c.JSON(http.StatusOK, telegramphone.ConfigResponse{Config: nil})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, telegramphone.ConfigResponse{Config: view})
}

// SendMessage sends an outbound message on the stored session.
func (h *PhoneHandler) SendMessage(c *gin.Context) {
	licenseID := middleware.MustGetLicenseID(c)

	var req telegramphone.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, msgInvalidInput)
		return
	}

	messageID, err := h.phoneService.SendMessage(c.Request.Context(), licenseID, req.Recipient, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, telegramphone.SendMessageResponse{
		Success:   true,
		Message:   msgMessageSent,
		MessageID: messageID,
	})
}

// Disconnect deactivates the phone session. Idempotent.
func (h *PhoneHandler) Disconnect(c *gin.Context) {
	licenseID := middleware.MustGetLicenseID(c)

	if err := h.phoneService.Disconnect(c.Request.Context(), licenseID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, msgDisconnected, nil)
}

// writeError maps service errors onto fixed localized messages and status
// codes, per the error taxonomy.
func (h *PhoneHandler) writeError(c *gin.Context, err error) {
	if fw, ok := xerrors.AsFloodWait(err); ok {
		response.Error(c, http.StatusServiceUnavailable, fmt.Sprintf(msgFloodWaitFmt, fw.Seconds))
		return
	}

	switch {
	case errors.Is(err, xerrors.ErrValidation):
		response.Error(c, http.StatusBadRequest, msgInvalidInput)
	case errors.Is(err, xerrors.ErrInvalidCode):
		response.Error(c, http.StatusBadRequest, msgInvalidCode)
	case errors.Is(err, xerrors.ErrCodeExpired):
		response.Error(c, http.StatusBadRequest, msgCodeExpired)
	case errors.Is(err, xerrors.ErrLoginExpired):
		response.Error(c, http.StatusBadRequest, msgLoginExpired)
	case errors.Is(err, xerrors.ErrHandleMismatch):
		response.Error(c, http.StatusConflict, msgHandleMismatch)
	case errors.Is(err, xerrors.ErrTwoFactorRequired):
		response.Error(c, http.StatusForbidden, msgTwoFactor)
	case errors.Is(err, xerrors.ErrPhoneUnoccupied):
		response.Error(c, http.StatusBadRequest, msgPhoneUnoccupied)
	case errors.Is(err, xerrors.ErrRateLimited):
		response.Error(c, http.StatusTooManyRequests, msgRateLimited)
	case errors.Is(err, xerrors.ErrNoActiveSession):
		response.NotFound(c, msgNoActiveSession)
	case errors.Is(err, xerrors.ErrSessionExpired):
		response.Unauthorized(c, msgSessionExpired)
	case errors.Is(err, xerrors.ErrProvider):
		response.Error(c, http.StatusBadGateway, msgProviderError)
	default:
		h.logger.Error("unhandled phone integration error", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, msgInternalError)
	}
}
