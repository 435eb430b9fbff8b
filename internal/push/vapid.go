package push

import (
	"errors"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// VAPID holds the application server identity used to sign push requests.
// It is built once at startup and validated on first use; a successful
// validation is remembered for the life of the process.
type VAPID struct {
	Subject    string
	PublicKey  string
	PrivateKey string

	mu    sync.Mutex
	valid bool
}

func NewVAPID(subject, publicKey, privateKey string) *VAPID {
	return &VAPID{Subject: subject, PublicKey: publicKey, PrivateKey: privateKey}
}

// Ensure reports every missing value at once.
func (v *VAPID) Ensure() error {
	if v == nil {
		return ErrNotConfigured
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.valid {
		return nil
	}

	var result *multierror.Error
	switch {
	case v.Subject == "":
		result = multierror.Append(result, errors.New("VAPID_SUBJECT is not set"))
	case !validSubject(v.Subject):
		result = multierror.Append(result, errors.New("VAPID_SUBJECT must be a mailto: address or an https: URL"))
	}
	if v.PublicKey == "" {
		result = multierror.Append(result, errors.New("VAPID_PUBLIC_KEY is not set"))
	}
	if v.PrivateKey == "" {
		result = multierror.Append(result, errors.New("VAPID_PRIVATE_KEY is not set"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	v.valid = true
	return nil
}

func validSubject(subject string) bool {
	if addr, ok := strings.CutPrefix(subject, "mailto:"); ok {
		return strings.Contains(addr, "@")
	}
	return strings.HasPrefix(subject, "https://")
}
