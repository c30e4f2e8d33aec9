// internal/common/camunda/camundatest/jobclient.go
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// JobClient is a worker.JobClient whose commands are captured in memory
// instead of reaching a gateway.
type JobClient struct {
	gateway *recordingGateway
}

func NewJobClient() *JobClient {
	return &JobClient{gateway: &recordingGateway{}}
}

func neverRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, neverRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, neverRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, neverRetry)
}

func (c *JobClient) Completed() []*pb.CompleteJobRequest {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), c.gateway.completed...)
}

func (c *JobClient) Failed() []*pb.FailJobRequest {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), c.gateway.failed...)
}

func (c *JobClient) Thrown() []*pb.ThrowErrorRequest {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), c.gateway.thrown...)
}

// CompletedVariables decodes the variables of the i-th complete command.
func (c *JobClient) CompletedVariables(i int) map[string]interface{} {
	completed := c.Completed()
	if i >= len(completed) {
		return nil
	}
	return decode(completed[i].Variables)
}

// ThrownVariables decodes the variables of the i-th throw-error command.
func (c *JobClient) ThrownVariables(i int) map[string]interface{} {
	thrown := c.Thrown()
	if i >= len(thrown) {
		return nil
	}
	return decode(thrown[i].Variables)
}

func decode(variables string) map[string]interface{} {
	out := map[string]interface{}{}
	_ = json.Unmarshal([]byte(variables), &out)
	return out
}

// NewJob builds an activated job carrying variables as its JSON payload.
func NewJob(key int64, jobType string, variables interface{}) entities.Job {
	payload, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               jobType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "vehicle-recommendation",
		ElementId:          "Activity_" + jobType,
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(payload),
	}}
}

// NewRawJob is NewJob with a literal variables document.
func NewRawJob(key int64, jobType, variables string) entities.Job {
	job := NewJob(key, jobType, nil)
	job.Variables = variables
	return job
}

type recordingGateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
}

func (g *recordingGateway) CompleteJob(_ context.Context, req *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, req)
	return &pb.CompleteJobResponse{}, nil
}

func (g *recordingGateway) FailJob(_ context.Context, req *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, req)
	return &pb.FailJobResponse{}, nil
}

func (g *recordingGateway) ThrowError(_ context.Context, req *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, req)
	return &pb.ThrowErrorResponse{}, nil
}
