// Package session wraps gin-contrib/sessions for cinelog: login identity,
// CSRF token storage, one-shot flash messages and one-shot confirmation
// flags, plus session-id regeneration on privilege transitions.
package session

import (
	"encoding/gob"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Name is the session cookie name.
const Name = "cinelog_session"

const (
	keyUserId    = "user_id"
	keyUserName  = "user_name"
	keyUserRole  = "user_role"
	keyCsrfToken = "csrf_token"
	keySuccess   = "success"
	keyError     = "error"
	keyOld       = "old"
)

var store *GormStore

func init() {
	gob.Register([]string{})
	gob.Register(map[string]string{})
}

// RegisterStore records the active store so Regenerate can rotate ids.
func RegisterStore(s *GormStore) {
	store = s
}

// SetLoginUser records the authenticated identity. Only scalar claims are
// stored; everything else is re-read from the database per request.
func SetLoginUser(c *gin.Context, id int, name, role string) {
	s := sessions.Default(c)
	s.Set(keyUserId, id)
	s.Set(keyUserName, name)
	s.Set(keyUserRole, role)
}

// ClearLoginUser drops the identity keys but keeps the session alive so
// flash messages written afterwards still reach the next page.
func ClearLoginUser(c *gin.Context) {
	s := sessions.Default(c)
	s.Delete(keyUserId)
	s.Delete(keyUserName)
	s.Delete(keyUserRole)
}

func GetUserId(c *gin.Context) int {
	if id, ok := sessions.Default(c).Get(keyUserId).(int); ok {
		return id
	}
	return 0
}

func GetUserName(c *gin.Context) string {
	if name, ok := sessions.Default(c).Get(keyUserName).(string); ok {
		return name
	}
	return ""
}

func GetRole(c *gin.Context) string {
	if role, ok := sessions.Default(c).Get(keyUserRole).(string); ok {
		return role
	}
	return ""
}

func IsLogin(c *gin.Context) bool {
	return GetUserId(c) > 0
}

// Regenerate rotates the session id: the old server-side row is removed, a
// fresh id is minted and the replacement cookie is issued immediately,
// invalidating any captured cookie. Saving goes through the store directly
// because the gin-contrib wrapper skips saves when no value was written.
// Called on login, logout, registration, profile edit and account deletion.
func Regenerate(c *gin.Context) error {
	if store == nil {
		return nil
	}
	sess, err := store.Get(c.Request, Name)
	if err != nil {
		return err
	}
	if err := store.delete(sess.ID); err != nil {
		return err
	}
	sess.ID = ""
	return store.Save(c.Request, c.Writer, sess)
}

// CSRF token storage. Generation and comparison live in web/security.

func GetCsrfToken(c *gin.Context) string {
	if token, ok := sessions.Default(c).Get(keyCsrfToken).(string); ok {
		return token
	}
	return ""
}

func SetCsrfToken(c *gin.Context, token string) error {
	s := sessions.Default(c)
	s.Set(keyCsrfToken, token)
	return s.Save()
}

func DeleteCsrfToken(c *gin.Context) error {
	s := sessions.Default(c)
	s.Delete(keyCsrfToken)
	return s.Save()
}

// Flash messages: appended now, drained on the next rendered page.

func AddSuccess(c *gin.Context, msg string) {
	addFlash(c, keySuccess, msg)
}

func AddError(c *gin.Context, msg string) {
	addFlash(c, keyError, msg)
}

func AddErrors(c *gin.Context, msgs []string) {
	for _, msg := range msgs {
		addFlash(c, keyError, msg)
	}
}

func addFlash(c *gin.Context, key, msg string) {
	s := sessions.Default(c)
	list, _ := s.Get(key).([]string)
	s.Set(key, append(list, msg))
	if err := s.Save(); err != nil {
		// A failed save only loses the flash, never the request.
		_ = err
	}
}

// TakeFlashes drains and returns the pending success and error messages.
func TakeFlashes(c *gin.Context) (successes, errors []string) {
	s := sessions.Default(c)
	successes, _ = s.Get(keySuccess).([]string)
	errors, _ = s.Get(keyError).([]string)
	if successes != nil || errors != nil {
		s.Delete(keySuccess)
		s.Delete(keyError)
		_ = s.Save()
	}
	return successes, errors
}

// Old form values echoed back after a validation failure. Secrets are the
// caller's responsibility to omit.

func SetOld(c *gin.Context, values map[string]string) {
	s := sessions.Default(c)
	s.Set(keyOld, values)
	_ = s.Save()
}

func TakeOld(c *gin.Context) map[string]string {
	s := sessions.Default(c)
	values, _ := s.Get(keyOld).(map[string]string)
	if values != nil {
		s.Delete(keyOld)
		_ = s.Save()
	}
	if values == nil {
		values = map[string]string{}
	}
	return values
}

// One-shot confirmation flags backing confirm-then-execute flows.

func SetFlag(c *gin.Context, key string) error {
	s := sessions.Default(c)
	s.Set(key, true)
	return s.Save()
}

// TakeFlag consumes the flag whether or not it was set and reports whether
// it was present.
func TakeFlag(c *gin.Context, key string) bool {
	s := sessions.Default(c)
	set, _ := s.Get(key).(bool)
	s.Delete(key)
	_ = s.Save()
	return set
}
