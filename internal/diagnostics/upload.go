package diagnostics

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/asaskevich/govalidator"
	"github.com/goccy/go-json"

	"github.com/priyxstudio/botdeck/system"
)

const DefaultMclogsAPIURL = "https://api.mclo.gs/1/log"

// MaxReportLines is the number of lines mclo.gs keeps of a paste.
const MaxReportLines = 25000

const (
	ErrMissingUploadAPIURL = errors.Sentinel("diagnostics: upload api url is required")
	ErrInvalidUploadAPIURL = errors.Sentinel("diagnostics: upload api url is invalid")
)

// Paste is a report stored by the paste service.
type Paste struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	Raw string `json:"raw"`
}

// Uploader sends reports to an mclo.gs compatible paste service.
type Uploader struct {
	APIURL string
	Client *http.Client
}

// Upload stores the report and returns where it can be viewed. Reports longer
// than MaxReportLines keep their last lines, where the log tail is.
func (u Uploader) Upload(ctx context.Context, report string) (Paste, error) {
	if u.APIURL == "" {
		return Paste{}, ErrMissingUploadAPIURL
	}
	if !govalidator.IsRequestURL(u.APIURL) {
		return Paste{}, errors.WithMessage(ErrInvalidUploadAPIURL, u.APIURL)
	}
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	if lines := strings.Split(report, "\n"); len(lines) > MaxReportLines {
		log.WithField("lines", len(lines)).Warn("report is too long, only the last lines are uploaded")
		report = strings.Join(lines[len(lines)-MaxReportLines:], "\n")
	}

	body := url.Values{"content": {report}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.APIURL, strings.NewReader(body))
	if err != nil {
		return Paste{}, errors.Wrap(err, "diagnostics: failed to create upload request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", system.UserAgent())

	res, err := client.Do(req)
	if err != nil {
		return Paste{}, errors.Wrap(err, "diagnostics: failed to upload report")
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return Paste{}, errors.Wrap(err, "diagnostics: failed to read upload response")
	}
	if res.StatusCode != http.StatusOK {
		return Paste{}, errors.Errorf("diagnostics: upload failed with status %s: %s", res.Status, b)
	}

	var r struct {
		Paste
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return Paste{}, errors.Wrap(err, "diagnostics: failed to decode upload response")
	}
	switch {
	case !r.Success && r.Error != "":
		return Paste{}, errors.New(r.Error)
	case !r.Success:
		return Paste{}, errors.New("diagnostics: upload failed")
	case r.URL == "":
		return Paste{}, errors.New("diagnostics: upload response is missing the paste url")
	}
	log.WithFields(log.Fields{"id": r.ID, "url": r.URL}).Debug("uploaded diagnostics report")
	return r.Paste, nil
}
