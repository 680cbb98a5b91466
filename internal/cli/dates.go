package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

var ErrUnparsedDate = errors.New("date not understood (expected YYYY-MM-DD or e.g. \"next saturday\")")

var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDateInput accepte une date ISO ou une expression relative à now
// ("tomorrow", "next saturday", "in 2 weeks") et renvoie YYYY-MM-DD.
func ParseDateInput(s string, now time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.ErrMissingDate
	}
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t.Format(domain.DateLayout), nil
	}
	res, err := dateParser.Parse(s, now)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", ErrUnparsedDate
	}
	return res.Time.Format(domain.DateLayout), nil
}
