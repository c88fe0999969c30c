package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
)

// Image is a generated still.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL encodes the image as a data: URI.
func (i Image) DataURL() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseDataURL decodes a base64 data: URI.
func ParseDataURL(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, errors.New("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, errors.New("data url missing payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Image{}, errors.New("data url is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode data url: %w", err)
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return Image{MIMEType: mime, Data: data}, nil
}

// GenerateImage renders a single frame for the prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Image{}, errors.New("image: prompt required")
	}
	if err := c.requireKey("image"); err != nil {
		return Image{}, err
	}
	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(c.cfg.ImageModel),
		N:      openai.Int(1),
	}
	if c.cfg.ImageSize != "" {
		params.Size = openai.ImageGenerateParamsSize(c.cfg.ImageSize)
	}
	// gpt-image models always answer with base64 and reject response_format.
	if strings.HasPrefix(c.cfg.ImageModel, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	var image Image
	err := c.withRetry(ctx, "image", func() error {
		resp, err := c.api.Images.Generate(ctx, params)
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
			return &emptyContentError{Op: "image"}
		}
		data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
		if err != nil {
			return fmt.Errorf("decode image: %w", err)
		}
		image = Image{MIMEType: http.DetectContentType(data), Data: data}
		return nil
	})
	if err != nil {
		return Image{}, err
	}
	return image, nil
}
