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

// Package ec2 implements a reference infrastructure backend that launches
// one EC2 instance per flow run. It signals started with the instance ID
// as soon as RunInstances returns, then polls DescribeInstances until the
// instance reports running. Run returns once the instance is running
// (status 0) or has shut down before running (status 1); it does not wait
// for the work on the instance to finish.
package ec2

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/tombee/flowworker/internal/infra"
	"github.com/tombee/flowworker/internal/worker"
)

// api is the subset of *ec2.Client the backend needs, so tests can supply a
// fake without standing up real AWS credentials.
type api interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Backend launches flow runs as EC2 instances. Vendor fields read from
// JobConfiguration.Vendor: "ami_id", "instance_type", "subnet_id",
// "security_group_ids" ([]string), "instance_profile_arn".
type Backend struct {
	client       api
	PollInterval time.Duration
}

// New constructs an ec2 Backend using the default AWS config resolution
// chain (env vars, shared config, instance role). It takes a context, so
// it is registered as an infra.Constructor through a closure.
func New(ctx context.Context) (infra.Backend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("ec2: loading AWS config: %w", err)
	}
	return &Backend{client: ec2.NewFromConfig(cfg), PollInterval: 5 * time.Second}, nil
}

// NewWithClient builds a Backend over an already-constructed client,
// primarily for tests.
func NewWithClient(client api, pollInterval time.Duration) *Backend {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Backend{client: client, PollInterval: pollInterval}
}

// Run implements infra.Backend.
func (b *Backend) Run(ctx context.Context, run worker.FlowRun, cfg worker.JobConfiguration, started infra.StartedFunc) (worker.WorkerResult, error) {
	input, err := b.buildRunInstancesInput(run, cfg)
	if err != nil {
		started("", err)
		return worker.WorkerResult{}, err
	}

	out, err := b.client.RunInstances(ctx, input)
	if err != nil {
		started("", err)
		return worker.WorkerResult{}, err
	}
	if len(out.Instances) == 0 {
		err := fmt.Errorf("ec2: RunInstances returned no instances for flow run %s", run.ID)
		started("", err)
		return worker.WorkerResult{}, err
	}
	instanceID := *out.Instances[0].InstanceId
	started(instanceID, nil)

	if err := b.waitUntilRunning(ctx, instanceID); err != nil {
		return worker.WorkerResult{Identifier: instanceID, StatusCode: 1}, err
	}
	return worker.WorkerResult{Identifier: instanceID, StatusCode: 0}, nil
}

func (b *Backend) buildRunInstancesInput(run worker.FlowRun, cfg worker.JobConfiguration) (*ec2.RunInstancesInput, error) {
	amiID, _ := cfg.Vendor["ami_id"].(string)
	if amiID == "" {
		return nil, fmt.Errorf("ec2: job configuration missing vendor.ami_id")
	}
	instanceType, _ := cfg.Vendor["instance_type"].(string)
	if instanceType == "" {
		instanceType = "t3.micro"
	}

	input := &ec2.RunInstancesInput{
		ImageId:      &amiID,
		InstanceType: types.InstanceType(instanceType),
		MinCount:     awsInt32(1),
		MaxCount:     awsInt32(1),
		UserData:     awsUserData(cfg.Command, cfg.Env),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags:         ec2Tags(cfg.Labels, run),
			},
		},
	}

	if subnetID, ok := cfg.Vendor["subnet_id"].(string); ok && subnetID != "" {
		input.SubnetId = &subnetID
	}
	if profileARN, ok := cfg.Vendor["instance_profile_arn"].(string); ok && profileARN != "" {
		input.IamInstanceProfile = &types.IamInstanceProfileSpecification{Arn: &profileARN}
	}
	if sgIDs, ok := cfg.Vendor["security_group_ids"].([]string); ok && len(sgIDs) > 0 {
		input.SecurityGroupIds = sgIDs
	}

	return input, nil
}

func (b *Backend) waitUntilRunning(ctx context.Context, instanceID string) error {
	ticker := time.NewTicker(b.PollInterval)
	defer ticker.Stop()

	for {
		out, err := b.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
		if err != nil {
			return err
		}
		if len(out.Reservations) > 0 && len(out.Reservations[0].Instances) > 0 {
			state := out.Reservations[0].Instances[0].State
			if state != nil {
				switch state.Name {
				case types.InstanceStateNameRunning:
					return nil
				case types.InstanceStateNameTerminated, types.InstanceStateNameShuttingDown:
					return fmt.Errorf("ec2: instance %s entered state %s before reporting running", instanceID, state.Name)
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func ec2Tags(labels map[string]string, run worker.FlowRun) []types.Tag {
	tags := []types.Tag{
		{Key: awsStr("Name"), Value: awsStr(run.Name)},
		{Key: awsStr("prefect.io/flow-run-id"), Value: awsStr(run.ID)},
	}
	for k, v := range labels {
		tags = append(tags, types.Tag{Key: awsStr(k), Value: awsStr(v)})
	}
	return tags
}

func awsUserData(command string, env map[string]string) *string {
	if command == "" {
		return nil
	}
	script := "#!/bin/sh\n"
	for k, v := range env {
		script += fmt.Sprintf("export %s=%q\n", k, v)
	}
	script += command + "\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(script))
	return &encoded
}

func awsInt32(v int32) *int32 { return &v }
func awsStr(v string) *string { return &v }
