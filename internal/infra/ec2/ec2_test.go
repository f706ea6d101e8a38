// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ec2_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	awssdkec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/flowworker/internal/infra/ec2"
	"github.com/tombee/flowworker/internal/worker"
)

type fakeAPI struct {
	runErr      error
	describeSeq []types.InstanceStateName
	describeIdx int
	instanceID  string
}

func (f *fakeAPI) RunInstances(ctx context.Context, params *awssdkec2.RunInstancesInput, optFns ...func(*awssdkec2.Options)) (*awssdkec2.RunInstancesOutput, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	id := f.instanceID
	return &awssdkec2.RunInstancesOutput{
		Instances: []types.Instance{{InstanceId: &id}},
	}, nil
}

func (f *fakeAPI) DescribeInstances(ctx context.Context, params *awssdkec2.DescribeInstancesInput, optFns ...func(*awssdkec2.Options)) (*awssdkec2.DescribeInstancesOutput, error) {
	state := types.InstanceStateNameRunning
	if f.describeIdx < len(f.describeSeq) {
		state = f.describeSeq[f.describeIdx]
	}
	f.describeIdx++
	return &awssdkec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{{
			Instances: []types.Instance{{State: &types.InstanceState{Name: state}}},
		}},
	}, nil
}

func TestBackend_Run_Success(t *testing.T) {
	api := &fakeAPI{instanceID: "i-0123456789", describeSeq: []types.InstanceStateName{types.InstanceStateNameRunning}}
	backend := ec2.NewWithClient(api, time.Millisecond)

	var startedID string
	started := func(identifier string, err error) {
		require.NoError(t, err)
		startedID = identifier
	}

	result, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1", Name: "run-1-name"},
		worker.JobConfiguration{
			Vendor: map[string]any{"ami_id": "ami-abc123"},
		}, started)
	require.NoError(t, err)
	assert.Equal(t, "i-0123456789", startedID)
	assert.Equal(t, "i-0123456789", result.Identifier)
	assert.Equal(t, 0, result.StatusCode)
}

func TestBackend_Run_MissingAMI(t *testing.T) {
	api := &fakeAPI{instanceID: "i-1"}
	backend := ec2.NewWithClient(api, time.Millisecond)

	var startedErr error
	started := func(_ string, err error) { startedErr = err }

	_, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"}, worker.JobConfiguration{}, started)
	require.Error(t, err)
	assert.Error(t, startedErr)
}

func TestBackend_Run_RunInstancesError(t *testing.T) {
	api := &fakeAPI{runErr: fmt.Errorf("throttled")}
	backend := ec2.NewWithClient(api, time.Millisecond)

	var startedErr error
	started := func(_ string, err error) { startedErr = err }

	_, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"},
		worker.JobConfiguration{Vendor: map[string]any{"ami_id": "ami-abc123"}}, started)
	require.Error(t, err)
	assert.Error(t, startedErr)
}

func TestBackend_Run_InstanceTerminatesBeforeRunning(t *testing.T) {
	api := &fakeAPI{
		instanceID:  "i-dead",
		describeSeq: []types.InstanceStateName{types.InstanceStateNamePending, types.InstanceStateNameTerminated},
	}
	backend := ec2.NewWithClient(api, time.Millisecond)

	started := func(string, error) {}

	result, err := backend.Run(context.Background(), worker.FlowRun{ID: "run-1"},
		worker.JobConfiguration{Vendor: map[string]any{"ami_id": "ami-abc123"}}, started)
	require.Error(t, err)
	assert.Equal(t, "i-dead", result.Identifier)
	assert.Equal(t, 1, result.StatusCode)
}
