package adapter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

type widget struct {
	name  *string
	count *int32
}

func newWidget(serialization.ParseNode) (serialization.Parsable, error) { return &widget{}, nil }

func (w *widget) Serialize(writer serialization.SerializationWriter) error {
	if err := writer.WriteStringValue("name", w.name); err != nil {
		return err
	}
	return writer.WriteInt32Value("count", w.count)
}

func (w *widget) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	return map[string]func(serialization.ParseNode) error{
		"name": func(n serialization.ParseNode) error {
			v, err := n.GetStringValue()
			w.name = v
			return err
		},
		"count": func(n serialization.ParseNode) error {
			v, err := n.GetInt32Value()
			w.count = v
			return err
		},
	}
}

// problem is an error model that wants the response status and headers.
type problem struct {
	code    string
	status  int
	headers http.Header
}

func newProblem(serialization.ParseNode) (serialization.Parsable, error) { return &problem{}, nil }

func (p *problem) Error() string { return "problem: " + p.code }

func (p *problem) SetStatusCode(code int) { p.status = code }

func (p *problem) SetResponseHeaders(headers http.Header) { p.headers = headers }

func (p *problem) Serialize(writer serialization.SerializationWriter) error {
	return writer.WriteStringValue("code", &p.code)
}

func (p *problem) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	return map[string]func(serialization.ParseNode) error{
		"code": func(n serialization.ParseNode) error {
			v, err := n.GetStringValue()
			if v != nil {
				p.code = *v
			}
			return err
		},
	}
}

// notice is a mapped error model that does not implement error.
type notice struct {
	reason string
}

func newNotice(serialization.ParseNode) (serialization.Parsable, error) { return &notice{}, nil }

func (n *notice) Serialize(writer serialization.SerializationWriter) error {
	return writer.WriteStringValue("reason", &n.reason)
}

func (n *notice) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	return map[string]func(serialization.ParseNode) error{
		"reason": func(node serialization.ParseNode) error {
			v, err := node.GetStringValue()
			if v != nil {
				n.reason = *v
			}
			return err
		},
	}
}

type color int

const (
	colorRed color = iota + 1
	colorBlue
)

func parseColor(s string) (any, error) {
	switch s {
	case "red":
		return colorRed, nil
	case "blue":
		return colorBlue, nil
	}
	return nil, fmt.Errorf("unknown color %q", s)
}

// countingServer replies with handler and counts every request it sees.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func respond(status int, contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestAdapter(t *testing.T, baseURL string, auth abstractions.AuthenticationProvider) *RestyRequestAdapter {
	t.Helper()
	if auth == nil {
		auth = abstractions.AnonymousAuthenticationProvider{}
	}
	a, err := New(auth, WithBaseUrl(baseURL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func getRequest(path string) *abstractions.RequestInformation {
	return abstractions.NewRequestInformationWithMethodAndUrlAndPathParameters(abstractions.GET, "{+baseurl}"+path, nil)
}
