package adapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
	"github.com/samvad-hq/restyadapter/pkg/store"
)

type fakeResponse struct {
	status int
	header http.Header
	body   []byte
}

func (f *fakeResponse) Body() []byte        { return f.body }
func (f *fakeResponse) StatusCode() int     { return f.status }
func (f *fakeResponse) Header() http.Header { return f.header }

// recordingTokenProvider hands out a stepped-up token once it is asked with claims.
type recordingTokenProvider struct {
	mu     sync.Mutex
	claims []string
}

func (p *recordingTokenProvider) GetAuthorizationToken(_ context.Context, _ *url.URL, additional map[string]any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, _ := additional[abstractions.ClaimsKey].(string)
	p.claims = append(p.claims, c)
	if c != "" {
		return "stepped-up", nil
	}
	return "initial", nil
}

func (p *recordingTokenProvider) GetAllowedHostsValidator() *abstractions.AllowedHostsValidator {
	return abstractions.NewAllowedHostsValidator(nil)
}

func TestGetClaimsFromResponse(t *testing.T) {
	challenge := func(values ...string) http.Header {
		h := make(http.Header)
		for _, v := range values {
			h.Add("WWW-Authenticate", v)
		}
		return h
	}
	cases := []struct {
		name    string
		status  int
		header  http.Header
		content io.Reader
		claims  string
		want    string
	}{
		{"bare claims", 401, challenge(`Bearer claims="xyz"`), nil, "", "xyz"},
		{"claims after realm", 401, challenge(`Bearer realm="", authorization_uri="https://login", claims="eyJhY2Nlc3NfdG9rZW4iOnt9fQ=="`), nil, "", "eyJhY2Nlc3NfdG9rZW4iOnt9fQ=="},
		{"scheme is case insensitive", 401, challenge(`bearer realm="", Claims="abc"`), nil, "", "abc"},
		{"second challenge header", 401, challenge(`Basic realm="x"`, `Bearer claims="two"`), nil, "", "two"},
		{"seekable body", 401, challenge(`Bearer claims="xyz"`), bytes.NewReader([]byte("{}")), "", "xyz"},
		{"non bearer scheme", 401, challenge(`Basic claims="xyz"`), nil, "", ""},
		{"bearer without claims", 401, challenge(`Bearer realm="api"`), nil, "", ""},
		{"not a 401", 403, challenge(`Bearer claims="xyz"`), nil, "", ""},
		{"claims already sent", 401, challenge(`Bearer claims="xyz"`), nil, "previous", ""},
		{"body cannot be replayed", 401, challenge(`Bearer claims="xyz"`), io.NopCloser(strings.NewReader("{}")), "", ""},
		{"no challenge", 401, http.Header{}, nil, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ri := getRequest("/x")
			ri.Content = tc.content
			got := getClaimsFromResponse(&fakeResponse{status: tc.status, header: tc.header}, ri, tc.claims)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClaimsChallengeIsRetriedOnce(t *testing.T) {
	var (
		mu     sync.Mutex
		auths  []string
		bodies []string
	)
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		auths = append(auths, r.Header.Get("Authorization"))
		bodies = append(bodies, string(b))
		mu.Unlock()
		if r.Header.Get("Authorization") == "Bearer initial" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="", claims="xyz"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		respond(http.StatusOK, "application/json", `{"name":"secret"}`)(w, r)
	})
	tokens := &recordingTokenProvider{}
	a := newTestAdapter(t, srv.URL, abstractions.NewBaseBearerTokenAuthenticationProvider(tokens))

	ri := abstractions.NewRequestInformationWithMethodAndUrlAndPathParameters(abstractions.POST, "{+baseurl}/secure", nil)
	ri.Content = bytes.NewReader([]byte(`{"q":1}`))
	ri.Headers.Set("Content-Type", "application/json")

	got, err := a.Send(context.Background(), ri, newWidget, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if name := got.(*widget).name; name == nil || *name != "secret" {
		t.Fatalf("unexpected result %v", got)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 exchanges, got %d", hits.Load())
	}
	if len(tokens.claims) != 2 || tokens.claims[0] != "" || tokens.claims[1] != "xyz" {
		t.Fatalf("unexpected claims passed to token provider: %q", tokens.claims)
	}
	if auths[1] != "Bearer stepped-up" {
		t.Fatalf("expected stepped-up token on retry, got %q", auths[1])
	}
	if bodies[0] != `{"q":1}` || bodies[1] != `{"q":1}` {
		t.Fatalf("expected the body to be replayed, got %q", bodies)
	}
}

func TestSecondChallengeIsReturnedUnmodified(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer claims="again"`)
		w.WriteHeader(http.StatusUnauthorized)
	})
	a := newTestAdapter(t, srv.URL, nil)

	_, err := a.Send(context.Background(), getRequest("/secure"), newWidget, nil)
	apiErr, ok := abstractions.IsApiError(err)
	if !ok || apiErr.ResponseStatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 ApiError, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected exactly 2 exchanges, got %d", hits.Load())
	}
}

func TestChallengeWithUnreplayableBodyIsNotRetried(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer claims="xyz"`)
		w.WriteHeader(http.StatusUnauthorized)
	})
	a := newTestAdapter(t, srv.URL, nil)

	ri := abstractions.NewRequestInformationWithMethodAndUrlAndPathParameters(abstractions.POST, "{+baseurl}/secure", nil)
	ri.Content = io.NopCloser(strings.NewReader("payload"))

	_, err := a.Send(context.Background(), ri, newWidget, nil)
	if _, ok := abstractions.IsApiError(err); !ok {
		t.Fatalf("expected ApiError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single exchange, got %d", hits.Load())
	}
}

type unrewindable struct {
	*bytes.Reader
}

func (unrewindable) Seek(int64, int) (int64, error) { return 0, errors.New("seek not allowed") }

func TestRewindFailureIsFatal(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer claims="xyz"`)
		w.WriteHeader(http.StatusUnauthorized)
	})
	a := newTestAdapter(t, srv.URL, nil)

	ri := abstractions.NewRequestInformationWithMethodAndUrlAndPathParameters(abstractions.POST, "{+baseurl}/secure", nil)
	ri.Content = unrewindable{bytes.NewReader([]byte("payload"))}

	_, err := a.Send(context.Background(), ri, newWidget, nil)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != opRewindRequestBody {
		t.Fatalf("expected rewind TransportError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single exchange, got %d", hits.Load())
	}
}

func TestCancelledWaitIsATransportError(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusOK)
	})
	t.Cleanup(func() { close(release) })
	a := newTestAdapter(t, srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-arrived
		cancel()
	}()

	_, err := a.SendPrimitive(ctx, getRequest("/slow"), serialization.KindString, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestTransportFailureIsFatal(t *testing.T) {
	srv, _ := countingServer(t, respond(http.StatusOK, "text/plain", "x"))
	base := srv.URL
	srv.Close()

	a := newTestAdapter(t, base, nil)
	_, err := a.SendPrimitive(context.Background(), getRequest("/gone"), serialization.KindString, nil)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != opSend {
		t.Fatalf("expected send TransportError, got %v", err)
	}
}

func TestMissingBaseUrlFailsToBuildRequest(t *testing.T) {
	a := newTestAdapter(t, "", nil)
	_, err := a.Send(context.Background(), getRequest("/x"), newWidget, nil)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != opBuildRequest {
		t.Fatalf("expected build TransportError, got %v", err)
	}
}

func TestConvertToNativeRequest(t *testing.T) {
	a := newTestAdapter(t, "https://api.example.com/v1", abstractions.NewBaseBearerTokenAuthenticationProvider(
		abstractions.NewStaticAccessTokenProvider("tkn", []string{"api.example.com"}),
	))

	ri := abstractions.NewRequestInformationWithMethodAndUrlAndPathParameters(abstractions.PATCH, "{+baseurl}/items/{id}{?expand}", map[string]string{"id": "42"})
	ri.QueryParameters["expand"] = "owner"
	ri.Headers.Add("Accept", "application/json")
	ri.Headers.Add("X-Trace", "a")
	ri.Headers.Add("X-Trace", "b")
	ri.SetStreamContent(bytes.NewReader([]byte("patch")))

	native, err := a.ConvertToNativeRequest(context.Background(), ri)
	if err != nil {
		t.Fatalf("ConvertToNativeRequest: %v", err)
	}
	req, ok := native.(*resty.Request)
	if !ok {
		t.Fatalf("expected *resty.Request, got %T", native)
	}
	if req.Method != http.MethodPatch {
		t.Fatalf("unexpected method %s", req.Method)
	}
	if req.URL != "https://api.example.com/v1/items/42?expand=owner" {
		t.Fatalf("unexpected url %s", req.URL)
	}
	if got := req.Header.Values("X-Trace"); len(got) != 2 {
		t.Fatalf("expected both header values, got %v", got)
	}
	if req.Header.Get("Authorization") != "Bearer tkn" {
		t.Fatalf("expected bearer token, got %q", req.Header.Get("Authorization"))
	}
	if body, ok := req.Body.([]byte); !ok || string(body) != "patch" {
		t.Fatalf("unexpected body %#v", req.Body)
	}
}

func TestBaseUrlAccessors(t *testing.T) {
	a := newTestAdapter(t, "https://one.example.com", nil)
	if a.GetBaseUrl() != "https://one.example.com" {
		t.Fatalf("unexpected base url %q", a.GetBaseUrl())
	}
	a.SetBaseUrl("https://two.example.com")
	if a.GetBaseUrl() != "https://two.example.com" {
		t.Fatalf("unexpected base url %q", a.GetBaseUrl())
	}
	if a.GetSerializationWriterFactory() == nil {
		t.Fatalf("expected a default serialization writer factory")
	}
}

// account keeps its properties in a backing store.
type account struct {
	backing store.BackingStore
}

func (a *account) GetBackingStore() store.BackingStore { return a.backing }

func (a *account) Serialize(writer serialization.SerializationWriter) error {
	v, _ := a.backing.Get("owner")
	owner, _ := v.(*string)
	return writer.WriteStringValue("owner", owner)
}

func (a *account) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	return map[string]func(serialization.ParseNode) error{
		"owner": func(n serialization.ParseNode) error {
			v, err := n.GetStringValue()
			if err != nil {
				return err
			}
			return a.backing.Set("owner", v)
		},
	}
}

func TestEnableBackingStoreTracksHydratedModels(t *testing.T) {
	srv, _ := countingServer(t, respond(http.StatusOK, "application/json", `{"owner":"ada"}`))
	a := newTestAdapter(t, srv.URL, nil)

	factory := store.BackingStoreFactory(func() store.BackingStore { return store.NewInMemoryBackingStore() })
	a.EnableBackingStore(factory)
	if a.GetBackingStoreFactory() == nil {
		t.Fatalf("expected backing store factory to be kept")
	}

	newAccount := func(serialization.ParseNode) (serialization.Parsable, error) {
		return &account{backing: a.GetBackingStoreFactory()()}, nil
	}
	got, err := a.Send(context.Background(), getRequest("/account"), newAccount, nil)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	backing := got.(*account).backing
	if !backing.GetInitializationCompleted() {
		t.Fatalf("expected initialization to be completed after parsing")
	}
	v, _ := backing.Get("owner")
	if owner, ok := v.(*string); !ok || *owner != "ada" {
		t.Fatalf("unexpected owner %v", v)
	}
	backing.SetReturnOnlyChangedValues(true)
	if changed := backing.Enumerate(); len(changed) != 0 {
		t.Fatalf("expected hydrated values to be unchanged, got %v", changed)
	}
	backing.SetReturnOnlyChangedValues(false)

	renamed := "grace"
	if err := backing.Set("owner", &renamed); err != nil {
		t.Fatalf("Set: %v", err)
	}
	writer, err := a.GetSerializationWriterFactory().GetSerializationWriter("application/json")
	if err != nil {
		t.Fatalf("GetSerializationWriter: %v", err)
	}
	if err := writer.WriteObjectValue("", got); err != nil {
		t.Fatalf("WriteObjectValue: %v", err)
	}
	content, err := writer.GetSerializedContent()
	if err != nil {
		t.Fatalf("GetSerializedContent: %v", err)
	}
	if string(content) != `{"owner":"grace"}` {
		t.Fatalf("unexpected payload %s", content)
	}
}

func TestAuthenticationFailureIsATransportError(t *testing.T) {
	srv, hits := countingServer(t, respond(http.StatusOK, "text/plain", "x"))
	a := newTestAdapter(t, srv.URL, abstractions.NewBaseBearerTokenAuthenticationProvider(failingTokenProvider{}))

	_, err := a.SendPrimitive(context.Background(), getRequest("/x"), serialization.KindString, nil)
	var te *TransportError
	if !errors.As(err, &te) || te.Op != opAuthenticateRequest {
		t.Fatalf("expected authentication TransportError, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no exchange, got %d", hits.Load())
	}
}

type failingTokenProvider struct{}

func (failingTokenProvider) GetAuthorizationToken(context.Context, *url.URL, map[string]any) (string, error) {
	return "", errors.New("token endpoint unavailable")
}

func (failingTokenProvider) GetAllowedHostsValidator() *abstractions.AllowedHostsValidator {
	return abstractions.NewAllowedHostsValidator(nil)
}
