package genai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"storyreel/internal/logging"
)

// VideoRequest is the input for a clip: the animation prompt and the shot's still.
type VideoRequest struct {
	Prompt string
	Image  Image
}

// ErrVideoFailed is returned when the provider reports the job as failed.
var ErrVideoFailed = errors.New("video generation failed")

// GenerateVideo submits a video job and waits for it, returning the media URI.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("video: prompt required")
	}
	if len(req.Image.Data) == 0 {
		return "", errors.New("video: source image required")
	}
	if err := c.requireKey("video"); err != nil {
		return "", err
	}

	mime := req.Image.MIMEType
	if mime == "" {
		mime = http.DetectContentType(req.Image.Data)
	}
	var job *openai.Video
	if err := c.withRetry(ctx, "video submit", func() error {
		// The reader is consumed per attempt.
		params := openai.VideoNewParams{
			Prompt:         req.Prompt,
			Model:          openai.VideoModel(c.cfg.VideoModel),
			Seconds:        openai.VideoSeconds(strconv.Itoa(c.cfg.VideoSeconds)),
			InputReference: openai.File(bytes.NewReader(req.Image.Data), referenceFilename(mime), mime),
		}
		submitted, err := c.api.Videos.New(ctx, params)
		if err != nil {
			return err
		}
		job = submitted
		return nil
	}); err != nil {
		return "", err
	}
	if job == nil || job.ID == "" {
		return "", errors.New("video submit: response missing job id")
	}

	logger := c.logger.With(logging.String("video_id", job.ID))
	logger.Debug("video job submitted", logging.String("status", string(job.Status)))

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.VideoTimeout)
	defer cancel()
	for {
		switch job.Status {
		case openai.VideoStatusCompleted:
			logger.Debug("video job completed")
			return c.videoContentURI(job.ID), nil
		case openai.VideoStatusFailed, "cancelled":
			message := string(job.Status)
			if job.Error.Message != "" {
				message = job.Error.Message
			}
			return "", fmt.Errorf("%w: %s", ErrVideoFailed, message)
		}
		if err := c.sleep(waitCtx, c.cfg.PollInterval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return "", fmt.Errorf("video poll: job %s not finished after %s: %w", job.ID, c.cfg.VideoTimeout, err)
			}
			return "", err
		}
		id := job.ID
		var polled *openai.Video
		if err := c.withRetry(waitCtx, "video poll", func() error {
			var err error
			polled, err = c.api.Videos.Get(waitCtx, id)
			return err
		}); err != nil {
			return "", err
		}
		job = polled
		logger.Debug("video job polled", logging.String("status", string(job.Status)), logging.Int("progress", int(job.Progress)))
	}
}

// OpenVideo streams finished video content. Callers close the returned body.
func (c *Client) OpenVideo(ctx context.Context, uri string) (io.ReadCloser, string, error) {
	id, ok := c.videoIDFromURI(uri)
	if !ok {
		return nil, "", fmt.Errorf("video content: uri %q is not served by %s", uri, c.cfg.BaseURL)
	}
	// Content downloads can outlast the request timeout.
	streamClient := *c.httpClient
	streamClient.Timeout = 0
	resp, err := c.api.Videos.DownloadContent(ctx, id, openai.VideoDownloadContentParams{},
		option.WithHTTPClient(&streamClient),
	)
	if err != nil {
		return nil, "", fmt.Errorf("video content: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/binary" {
		contentType = "video/mp4"
	}
	return resp.Body, contentType, nil
}

func (c *Client) videoContentURI(id string) string {
	return c.cfg.BaseURL + "/videos/" + id + "/content"
}

func (c *Client) videoIDFromURI(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, c.cfg.BaseURL+"/videos/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/content")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func referenceFilename(mime string) string {
	switch mime {
	case "image/jpeg":
		return "reference.jpg"
	case "image/webp":
		return "reference.webp"
	default:
		return "reference.png"
	}
}
