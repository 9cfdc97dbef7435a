package session

import (
	"bytes"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/cinelog/cinelog/database"
	"github.com/cinelog/cinelog/database/model"
	"github.com/cinelog/cinelog/util/common"
	"github.com/cinelog/cinelog/util/random"

	"github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	gorillasessions "github.com/gorilla/sessions"
)

// sessionLifetime bounds how long an idle session row survives in the
// database. The cookie itself is non-persistent (MaxAge 0).
const sessionLifetime = 24 * time.Hour

// GormStore keeps session state in the sessions table; the cookie carries
// only the securecookie-signed record id. Implements the
// gin-contrib/sessions Store interface.
type GormStore struct {
	Codecs  []securecookie.Codec
	options *sessions.Options
}

// NewGormStore creates a database-backed session store signing cookies with
// the given key pairs.
func NewGormStore(keyPairs ...[]byte) *GormStore {
	return &GormStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &sessions.Options{
			Path:     "/",
			MaxAge:   0,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
}

// Options sets the cookie options for new sessions.
func (s *GormStore) Options(opts sessions.Options) {
	s.options = &opts
}

// Get retrieves the request's session through the gorilla registry, so every
// caller within one request shares the same session object.
func (s *GormStore) Get(r *http.Request, name string) (*gorillasessions.Session, error) {
	return gorillasessions.GetRegistry(r).Get(s, name)
}

// New creates a session, loading existing state when the request carries a
// valid cookie. A failed decode or a missing row yields a fresh session.
func (s *GormStore) New(r *http.Request, name string) (*gorillasessions.Session, error) {
	session := gorillasessions.NewSession(s, name)
	session.Options = &gorillasessions.Options{
		Path:     s.options.Path,
		Domain:   s.options.Domain,
		MaxAge:   s.options.MaxAge,
		Secure:   s.options.Secure,
		HttpOnly: s.options.HttpOnly,
		SameSite: s.options.SameSite,
	}
	session.IsNew = true

	if c, errCookie := r.Cookie(name); errCookie == nil {
		err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...)
		if err == nil {
			if err = s.load(session); err == nil {
				session.IsNew = false
			}
		}
	}

	return session, nil
}

// Save persists the session and refreshes the cookie. MaxAge < 0 deletes the
// session; an empty ID mints a new one.
func (s *GormStore) Save(r *http.Request, w http.ResponseWriter, session *gorillasessions.Session) error {
	if session.Options.MaxAge < 0 {
		if err := s.delete(session.ID); err != nil {
			return err
		}
		http.SetCookie(w, s.newCookie(r, session, ""))
		return nil
	}

	if session.ID == "" {
		session.ID = random.Hex(32)
	}

	if err := s.save(session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.newCookie(r, session, encoded))
	return nil
}

// newCookie builds the session cookie. Secure is set when configured for
// the deployment or when the request itself arrived over TLS, whichever
// comes first.
func (s *GormStore) newCookie(r *http.Request, session *gorillasessions.Session, value string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     session.Name(),
		Value:    value,
		Path:     session.Options.Path,
		Domain:   session.Options.Domain,
		MaxAge:   session.Options.MaxAge,
		Secure:   session.Options.Secure || r.TLS != nil,
		HttpOnly: session.Options.HttpOnly,
		SameSite: session.Options.SameSite,
	}
	if session.Options.MaxAge > 0 {
		cookie.Expires = time.Now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	}
	return cookie
}

func (s *GormStore) save(session *gorillasessions.Session) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(session.Values); err != nil {
		return common.NewErrorf("failed to encode session values: %v", err)
	}

	record := model.SessionRecord{
		Id:        session.ID,
		Data:      buf.Bytes(),
		ExpiresAt: time.Now().Add(sessionLifetime),
	}
	return database.GetDB().Save(&record).Error
}

func (s *GormStore) load(session *gorillasessions.Session) error {
	var record model.SessionRecord
	err := database.GetDB().First(&record, "id = ?", session.ID).Error
	if err != nil {
		return err
	}
	if time.Now().After(record.ExpiresAt) {
		_ = s.delete(session.ID)
		return common.NewError("session expired")
	}
	return gob.NewDecoder(bytes.NewReader(record.Data)).Decode(&session.Values)
}

func (s *GormStore) delete(id string) error {
	if id == "" {
		return nil
	}
	return database.GetDB().Delete(&model.SessionRecord{}, "id = ?", id).Error
}

// PurgeExpired removes session rows past their expiry. Called by the
// maintenance job.
func (s *GormStore) PurgeExpired() (int64, error) {
	result := database.GetDB().Where("expires_at < ?", time.Now()).Delete(&model.SessionRecord{})
	return result.RowsAffected, result.Error
}
