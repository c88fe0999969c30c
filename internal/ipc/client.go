package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// ProjectList returns dashboard summaries.
func (c *Client) ProjectList() (*ProjectListResponse, error) {
	return call[ProjectListResponse](c, "ProjectList", ProjectListRequest{})
}

// ProjectShow returns one project's tree.
func (c *Client) ProjectShow(projectID string) (*ProjectResponse, error) {
	return call[ProjectResponse](c, "ProjectShow", ProjectRequest{ProjectID: projectID})
}

// ProjectImport creates a project from text.
func (c *Client) ProjectImport(req ProjectImportRequest) (*ProjectImportResponse, error) {
	return call[ProjectImportResponse](c, "ProjectImport", req)
}

// ProjectDelete removes a project.
func (c *Client) ProjectDelete(projectID string) (*ProjectDeleteResponse, error) {
	return call[ProjectDeleteResponse](c, "ProjectDelete", ProjectRequest{ProjectID: projectID})
}

// SceneToggle flips a scene's expanded flag.
func (c *Client) SceneToggle(projectID, sceneID string) (*ProjectResponse, error) {
	return call[ProjectResponse](c, "SceneToggle", SceneToggleRequest{ProjectID: projectID, SceneID: sceneID})
}

// ProjectLogs returns activity entries after since.
func (c *Client) ProjectLogs(projectID string, since int64) (*ProjectLogsResponse, error) {
	return call[ProjectLogsResponse](c, "ProjectLogs", ProjectLogsRequest{ProjectID: projectID, Since: since})
}

// Submit queues a breakdown, image or video job.
func (c *Client) Submit(projectID, kind, target string) (*SubmitResponse, error) {
	return call[SubmitResponse](c, "Submit", SubmitRequest{ProjectID: projectID, Kind: kind, Target: target})
}

// JobList returns jobs filtered by project and status.
func (c *Client) JobList(projectID string, statuses []string) (*JobListResponse, error) {
	return call[JobListResponse](c, "JobList", JobListRequest{ProjectID: projectID, Statuses: statuses})
}

// LogTail returns lines from the daemon log file.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailResponse](c, "LogTail", req)
}

// LogEvents returns events from the daemon's in-memory log stream.
func (c *Client) LogEvents(req LogEventsRequest) (*LogEventsResponse, error) {
	return call[LogEventsResponse](c, "LogEvents", req)
}

// DatabaseHealth retrieves database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	return call[DatabaseHealthResponse](c, "DatabaseHealth", DatabaseHealthRequest{})
}

// Prune runs maintenance immediately.
func (c *Client) Prune() (*PruneResponse, error) {
	return call[PruneResponse](c, "Prune", PruneRequest{})
}

// TestNotification asks the daemon to send a test push.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](c, "TestNotification", TestNotificationRequest{})
}
