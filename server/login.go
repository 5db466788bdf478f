package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin mints a session JWT. Access is guarded by a shared
// access code from the environment; the subject is a stable uuid
// derived from the email so profile records survive re-logins.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	if s.cfg.AccessCode == "" || len(s.cfg.TokenSecret) == 0 {
		return errJSON(c, fiber.StatusServiceUnavailable, "login disabled on this server")
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return errJSON(c, fiber.StatusBadRequest, "valid email required")
	}
	if req.Password != s.cfg.AccessCode {
		log.Warn().Str("email", email).Msg("login rejected")
		return errJSON(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte("lingo:"+email)).String()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uid,
		"email": email,
		"name":  displayName(email),
		"iat":   now.Unix(),
		"exp":   now.Add(s.cfg.TokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.cfg.TokenSecret)
	if err != nil {
		log.Error().Err(err).Msg("token signing failed")
		return errJSON(c, fiber.StatusInternalServerError, "token signing failed")
	}

	log.Info().Str("email", email).Str("uid", uid).Msg("login ok")
	return c.JSON(fiber.Map{"token": signed})
}

// displayName guesses a human name from the email local part.
func displayName(email string) string {
	local := email[:strings.Index(email, "@")]
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
