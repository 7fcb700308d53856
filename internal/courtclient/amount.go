package courtclient

import (
	"bytes"
	"strconv"

	"github.com/evidenceledger/proxybid/internal/models"
)

// amount accepts won amounts sent either as JSON numbers or as strings with digit grouping
type amount int64

func (a *amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}

	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		n, err := models.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = amount(n)
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*a = amount(int64(f))
	return nil
}
