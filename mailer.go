package identity

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// SendFunc hands a fully rendered message to a mail transport.
type SendFunc func(ctx context.Context, to, from, subject, body string) error

// TemplateMailer renders mail bodies from django templates before
// delegating delivery to a transport. Template names map to files in
// the configured directory, e.g. "email-confirmation" ->
// email-confirmation.html.
type TemplateMailer struct {
	engine *django.Engine
	send   SendFunc
}

var _ Mailer = (*TemplateMailer)(nil)

// NewTemplateMailer loads the template directory and returns a Mailer
// that renders through it.
func NewTemplateMailer(templateDir string, send SendFunc) (*TemplateMailer, error) {
	engine := django.New(templateDir, ".html")
	if err := engine.Load(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load mail templates")
	}

	return &TemplateMailer{
		engine: engine,
		send:   send,
	}, nil
}

// NewTemplateMailerFS is like NewTemplateMailer but loads templates
// from a filesystem, e.g. the embedded defaults from GetTemplatesFS.
func NewTemplateMailerFS(fsys fs.FS, send SendFunc) (*TemplateMailer, error) {
	engine := django.NewFileSystem(http.FS(fsys), ".html")
	if err := engine.Load(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load mail templates")
	}

	return &TemplateMailer{
		engine: engine,
		send:   send,
	}, nil
}

func (m *TemplateMailer) Send(ctx context.Context, msg Message) error {
	var body bytes.Buffer
	if err := m.engine.Render(&body, msg.Template, msg.Context); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to render mail template").
			WithMetadata(map[string]any{"template": msg.Template})
	}

	return m.send(ctx, msg.To, msg.From, msg.Subject, body.String())
}

// DevMailer writes messages to stdout instead of delivering them.
// Useful for local development and examples.
type DevMailer struct{}

var _ Mailer = DevMailer{}

func (DevMailer) Send(_ context.Context, msg Message) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", msg.To)
	fmt.Printf("subject: %s\n", msg.Subject)
	if token, ok := msg.Context["token"]; ok {
		fmt.Printf("link: /auth/confirm-email/%v\n", token)
	}
	fmt.Println(print.MaybePrettyJSON(msg.Context))
	return nil
}
