package mailclient

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/yusufsyaifudin/ngundang/pkg/validator"
)

// BuildMessage renders the RFC 5322 message ready to be written after DATA command.
func BuildMessage(data EmailSingle) (raw []byte, err error) {
	err = validator.Validate(data)
	if err != nil {
		err = fmt.Errorf("invalid email data: %w", err)
		return
	}

	date := data.Date
	if date.IsZero() {
		date = time.Now()
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Address: data.From}})
	h.SetAddressList("To", []*mail.Address{{Name: data.ToName, Address: data.To}})
	h.SetSubject(data.Subject)
	if err = h.GenerateMessageID(); err != nil {
		err = fmt.Errorf("generate message id: %w", err)
		return
	}

	buf := bytes.NewBuffer(nil)
	mw, err := mail.CreateWriter(buf, h)
	if err != nil {
		err = fmt.Errorf("create mail writer: %w", err)
		return
	}

	iw, err := mw.CreateInline()
	if err != nil {
		err = fmt.Errorf("create inline writer: %w", err)
		return
	}

	err = writeTextPart(iw, "text/plain", data.PlainBody)
	if err != nil {
		return
	}

	if data.HTMLBody != "" {
		err = writeTextPart(iw, "text/html", data.HTMLBody)
		if err != nil {
			return
		}
	}

	if err = iw.Close(); err != nil {
		err = fmt.Errorf("close inline writer: %w", err)
		return
	}

	if err = mw.Close(); err != nil {
		err = fmt.Errorf("close mail writer: %w", err)
		return
	}

	raw = buf.Bytes()
	return
}

func writeTextPart(iw *mail.InlineWriter, contentType, body string) error {
	var th mail.InlineHeader
	th.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	th.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := iw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}

	if _, err = io.WriteString(w, body); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("close %s part: %w", contentType, err)
	}

	return nil
}
