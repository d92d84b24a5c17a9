package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Client is the interface to a bot server. Every method issues exactly one
// request, except UpdateBotToken with an empty token which issues none.
type Client interface {
	CheckServerStatus(ctx context.Context) (bool, error)
	StartBot(ctx context.Context) (bool, error)
	StopBot(ctx context.Context) (bool, error)
	CheckBotStatus(ctx context.Context) (bool, error)
	Ping(ctx context.Context) (Ping, error)
	FetchServerInfo(ctx context.Context) ([]Guild, error)

	SendHello(ctx context.Context, memberID, message string) (string, error)
	FetchMemberCount(ctx context.Context) (MemberCount, error)
	FetchMembers(ctx context.Context) ([]Member, error)
	FetchRoles(ctx context.Context) ([]Role, error)
	GiveMemberRole(ctx context.Context, userID, roleID string) (string, error)
	FetchChannels(ctx context.Context) ([]Channel, error)
	ClearMessages(ctx context.Context, channelID string, limit int) (string, error)

	CreateComplexSurvey(ctx context.Context, s ComplexSurvey) (string, error)
	CreateSimpleSurvey(ctx context.Context, s SimpleSurvey) (string, error)
	ManageAttendance(ctx context.Context, a Attendance) (string, error)
	StartTutorFeedback(ctx context.Context, f TutorFeedback) (string, error)

	FetchAttendanceFiles(ctx context.Context) ([]FileInfo, error)
	FetchFeedbackFiles(ctx context.Context) ([]FileInfo, error)
	FetchSurveyFiles(ctx context.Context) ([]FileInfo, error)
	FetchAttendanceContent(ctx context.Context, file string) ([]AttendanceEntry, error)
	FetchFeedbackContent(ctx context.Context, file string) ([]FeedbackEntry, error)
	FetchSurveyContent(ctx context.Context, file string) ([]SurveyEntry, error)

	UpdateDevelopmentMode(ctx context.Context, enabled bool) (string, error)
	UpdateBotToken(ctx context.Context, developmentMode bool, token string) (string, error)
	UpdateGroups(ctx context.Context, groups []string) (string, error)
	ClearGroups(ctx context.Context) (string, error)
	FetchSettings(ctx context.Context) (Settings, error)
}

type client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	userAgent     string
	customHeaders map[string]string
}

// New returns a new HTTP request client that is used for making authenticated
// requests to the bot server located at base.
func New(base string, opts ...ClientOption) Client {
	c := client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(base), "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// ClientOption configures the client returned by New.
type ClientOption func(c *client)

// WithAPIKey sets the key sent as the api_key query parameter.
func WithAPIKey(key string) ClientOption {
	return func(c *client) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithHttpClient sets the underlying HTTP client instance. A nil client is
// ignored.
func WithHttpClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the request timeout of the underlying HTTP client. Zero
// disables the timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *client) {
		c.userAgent = ua
	}
}

// WithCustomHeaders sets custom headers to be included in all requests.
func WithCustomHeaders(headers map[string]string) ClientOption {
	return func(c *client) {
		if headers == nil {
			c.customHeaders = make(map[string]string)
			return
		}
		c.customHeaders = make(map[string]string, len(headers))
		for k, v := range headers {
			c.customHeaders[k] = v
		}
	}
}

// q is the set of query parameters of one request. Keys are sorted by
// url.Values when encoded.
type q map[string]string

// endpoint builds the absolute URL for path with the api key and params
// attached. It fails before any I/O when the client is missing its server
// address or api key.
func (c *client) endpoint(path string, params q) (*url.URL, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, newError(KindInvalidURL, "invalid URL: server address and API key are required", nil)
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newError(KindInvalidURL, "invalid URL: "+c.baseURL+path, err)
	}
	v := url.Values{}
	v.Set("api_key", c.apiKey)
	for k, val := range params {
		v.Set(k, val)
	}
	u.RawQuery = v.Encode()
	return u, nil
}

// request executes a single HTTP request and returns the status code and the
// full body. Only transport problems are reported as errors here.
func (c *client) request(ctx context.Context, method, path string, params q, body []byte) (int, []byte, error) {
	u, err := c.endpoint(path, params)
	if err != nil {
		return 0, nil, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return 0, nil, newError(KindInvalidURL, "invalid URL: "+err.Error(), err)
	}

	id := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", id)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.customHeaders {
		req.Header.Set(k, v)
	}

	logger := log.WithFields(log.Fields{"method": method, "endpoint": path, "request_id": id})
	logger.Debug("making request to bot server")

	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Debug("request to bot server failed")
		return 0, nil, newError(KindTransport, err.Error(), err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, newError(KindTransport, err.Error(), err)
	}
	logger.WithField("status", res.StatusCode).Debug("received response from bot server")
	return res.StatusCode, b, nil
}

// envelope is the {status, message, data} wrapper used by most endpoints.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) success() bool {
	return e.Status == "success"
}

// call performs the request and reduces the answer to a successful envelope
// or a failure carrying the most specific message available.
func (c *client) call(ctx context.Context, method, path string, params q, body []byte) (envelope, error) {
	code, b, err := c.request(ctx, method, path, params, body)
	if err != nil {
		return envelope{}, err
	}
	return decodeEnvelope(code, b)
}

func decodeEnvelope(code int, b []byte) (envelope, error) {
	var env envelope
	perr := json.Unmarshal(b, &env)
	if perr == nil && env.success() {
		return env, nil
	}
	return envelope{}, failure(code, b, env, perr)
}

// failure picks the failure message: server message, then HTTP status, then
// raw body.
func failure(code int, b []byte, env envelope, perr error) error {
	if perr == nil && env.Message != "" {
		return &Error{Kind: KindApplication, Message: env.Message, StatusCode: code}
	}
	if code < 200 || code > 299 {
		return &Error{Kind: KindProtocol, Message: statusMessage(code), StatusCode: code}
	}
	if perr != nil {
		return &Error{Kind: KindProtocol, Message: "failed to parse response: " + string(b), StatusCode: code, err: perr}
	}
	return &Error{Kind: KindApplication, Message: "request failed with status \"" + env.Status + "\"", StatusCode: code}
}

// message returns the envelope message for operations whose only payload is a
// confirmation string.
func (c *client) message(ctx context.Context, method, path string, params q) (string, error) {
	env, err := c.call(ctx, method, path, params, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// raw fetches an endpoint without an envelope, such as the data file
// listings, and decodes a 2xx body into v.
func (c *client) raw(ctx context.Context, path string, params q, v interface{}) error {
	code, b, err := c.request(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		var env envelope
		perr := json.Unmarshal(b, &env)
		return failure(code, b, env, perr)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return &Error{Kind: KindProtocol, Message: "failed to parse response: " + string(b), StatusCode: code, err: err}
	}
	return nil
}
