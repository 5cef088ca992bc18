package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelops/internal/lifecycle"
)

const testBase = "http://backend.test"

// newTestClient returns a client whose transport is intercepted by httpmock.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(testBase, WithHTTPClient(hc))
}

func TestListModels(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/api/model-list",
		httpmock.NewStringResponder(200, `{
			"bedrock": [{"key":"claude4","name":"Claude 4","category":"bedrock","always_available":true}],
			"ec2": [{"key":"qwen3-8b","name":"Qwen3 8B","category":"ec2"}]
		}`))

	cat, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat.All(), 2)
	assert.True(t, cat.Bedrock[0].AlwaysAvailable)
	assert.Equal(t, "qwen3-8b", cat.EC2[0].Key)
}

func TestCheckModelStatus(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("POST", testBase+"/api/check-model-status",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"statuses": map[string]interface{}{
					"qwen3-8b": map[string]string{"status": "deployed"},
				},
			})
		})

	statuses, err := c.CheckModelStatus(context.Background(), []string{"qwen3-8b"}, false)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDeployed, statuses["qwen3-8b"].Status)
}

func TestCheckModelStatus_EmptyKeys(t *testing.T) {
	c := newTestClient(t)
	statuses, err := c.CheckModelStatus(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, statuses)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestDeployModel_EnvelopeFailure(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("POST", testBase+"/api/deploy-model",
		httpmock.NewStringResponder(200, `{"success": false, "message": "no capacity"}`))

	err := c.DeployModel(context.Background(), "qwen3-8b")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "no capacity", apiErr.Message)
}

func TestStopModel_HTTPError(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("POST", testBase+"/api/stop-model",
		httpmock.NewStringResponder(500, `{"error": "boom"}`))

	err := c.StopModel(context.Background(), "m")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestStressTestStatus_NotFound(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/api/stress-test/status/gone",
		httpmock.NewStringResponder(404, `{"error": "session not found"}`))

	_, err := c.StressTestStatus(context.Background(), "gone")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStartStressTest(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("POST", testBase+"/api/stress-test/start",
		httpmock.NewStringResponder(200, `{"session_id":"s-1","status":"running","progress":0}`))

	s, err := c.StartStressTest(context.Background(), StressTestRequest{
		Model: "qwen3-8b", NumRequests: "50,100", Concurrency: "1,5",
	})
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.SessionID)
	assert.Equal(t, lifecycle.StatusRunning, s.Status)
}

func TestHyperPodJobs(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/api/hyperpod/jobs",
		httpmock.NewStringResponder(200, `[{"id":"j-1","preset":"p-small","status":"running"}]`))

	jobs, err := c.HyperPodJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j-1", jobs[0].ID)
}

func TestMultiInference_StreamBody(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("POST", testBase+"/api/multi-inference",
		httpmock.NewStringResponder(200, "data: {\"model\":\"m\",\"status\":\"success\"}\n\ndata: {\"type\":\"complete\"}\n\n"))

	body, err := c.MultiInference(context.Background(), InferenceRequest{Models: []string{"m"}, Prompt: "hi"})
	require.NoError(t, err)
	defer body.Close()
	assert.NotNil(t, body)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder("GET", testBase+"/api/model-list",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.ListModels(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not backend errors")
}
