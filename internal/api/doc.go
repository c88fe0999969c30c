// Package api serves the HTTP surface consumed by the editorial UI.
//
// # Routes
//
// All routes live under /v1/api and are served by gin:
//
//	POST   /session                     mocked sign-in, returns a session token
//	DELETE /session                     sign out
//	GET    /session/view                current screen
//	PUT    /session/view                select a screen
//	POST   /session/open                open a project in the workspace screen
//	GET    /dashboard                   project summaries for the signed-in user
//	GET    /projects                    project summaries
//	POST   /projects/import             import text (JSON body or multipart upload)
//	GET    /projects/:id                full project tree
//	DELETE /projects/:id                remove a project, its logs and jobs
//	POST   /projects/:id/scenes/:scene/toggle
//	POST   /projects/:id/scenes/:scene/beats/:beat/shots
//	POST   /projects/:id/scenes/:scene/beats/:beat/shots/:shot/image
//	POST   /projects/:id/scenes/:scene/beats/:beat/shots/:shot/video
//	GET    /projects/:id/scenes/:scene/beats/:beat/shots/:shot/video/content
//	GET    /projects/:id/jobs
//	GET    /projects/:id/logs           activity log after ?since=
//	GET    /projects/:id/logs/ws        activity log as a websocket stream
//	GET    /jobs
//	GET    /logs                        daemon log tail from the stream hub
//	GET    /status
//
// Generation routes enqueue a job and answer 202 with the stored job. Import
// answers 202 with the placeholder project and its analyze job, or 201 with
// the analyzed tree when ?wait=true.
//
// Session routes read the token from the X-Session-Token header. When an API
// token is configured every route also requires "Authorization: Bearer".
package api
