// Package genai talks to the OpenAI-compatible generative API that does all of
// storyreel's narrative, image, and video work.
//
// # Entry Points
//
// NewClient / FromConfig: construct a client.
// Client.AnalyzeText: imported story or script text -> ProjectDraft.
// Client.BreakdownBeat: beat, scene heading, and assets -> shot drafts.
// Client.GenerateImage: prompt -> base64 image returned as a data URL.
// Client.GenerateVideo: prompt + source image -> provider media URI.
// Client.OpenVideo: stream finished video content with credentials.
// Client.HealthCheck: verify the API key and text model.
//
// Text calls use chat completions with a strict JSON schema reflected from the
// draft types. Responses are still decoded tolerantly (code fences, leading
// prose) because compatible providers do not all honour the schema.
//
// # Video
//
// Video generation is asynchronous on the provider side. GenerateVideo submits
// a multipart job with the shot image as input_reference, then polls the job
// until it completes, fails, or the configured video timeout elapses.
//
// # Retry Behaviour
//
// Retries are off by default (one attempt). When retry_attempts is raised the
// client retries HTTP 408/429/5xx responses and network timeouts with
// exponential backoff, honouring Retry-After. Context cancellation aborts
// retries immediately.
package genai
