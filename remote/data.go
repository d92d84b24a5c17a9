package remote

import (
	"context"
	"strings"
)

// DataKind selects one of the file collections kept by the server.
type DataKind string

const (
	DataAttendance DataKind = "attendance"
	DataFeedback   DataKind = "feedback"
	DataSurveys    DataKind = "surveys"
)

func (k DataKind) path() string {
	return "/api/data/" + string(k)
}

type filesResponse struct {
	Files []FileInfo `json:"files"`
}

type contentResponse[T any] struct {
	Content []T `json:"content"`
}

func (c *client) files(ctx context.Context, kind DataKind) ([]FileInfo, error) {
	var res filesResponse
	if err := c.raw(ctx, kind.path(), nil, &res); err != nil {
		return nil, err
	}
	if res.Files == nil {
		res.Files = []FileInfo{}
	}
	return res.Files, nil
}

func content[T any](ctx context.Context, c *client, kind DataKind, file string) ([]T, error) {
	if strings.TrimSpace(file) == "" {
		return nil, newError(KindInvalidArgument, "a file name is required", nil)
	}
	var res contentResponse[T]
	if err := c.raw(ctx, kind.path(), q{"file": file}, &res); err != nil {
		return nil, err
	}
	if res.Content == nil {
		res.Content = []T{}
	}
	return res.Content, nil
}

func (c *client) FetchAttendanceFiles(ctx context.Context) ([]FileInfo, error) {
	return c.files(ctx, DataAttendance)
}

func (c *client) FetchFeedbackFiles(ctx context.Context) ([]FileInfo, error) {
	return c.files(ctx, DataFeedback)
}

func (c *client) FetchSurveyFiles(ctx context.Context) ([]FileInfo, error) {
	return c.files(ctx, DataSurveys)
}

func (c *client) FetchAttendanceContent(ctx context.Context, file string) ([]AttendanceEntry, error) {
	return content[AttendanceEntry](ctx, c, DataAttendance, file)
}

func (c *client) FetchFeedbackContent(ctx context.Context, file string) ([]FeedbackEntry, error) {
	return content[FeedbackEntry](ctx, c, DataFeedback, file)
}

func (c *client) FetchSurveyContent(ctx context.Context, file string) ([]SurveyEntry, error) {
	return content[SurveyEntry](ctx, c, DataSurveys, file)
}
