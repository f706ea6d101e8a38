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

/*
Package worker implements the polling, admission, and submission engine
that sits at the center of the flowworker binary.

# Lifecycle

A Worker moves through New → Setup → Running ⇄ Polling → Tearing_Down →
Closed. Construct one with New, call Setup once, then call GetAndSubmit
repeatedly (typically on a ticker) until shutdown, then call Teardown.

	w, err := worker.New("nightly-etl", "process", "", client, logger,
	    worker.WithLimit(10),
	    worker.WithBackendRegistry(registry),
	    worker.WithEventSink(sink),
	)
	if err != nil {
	    return err
	}
	if err := w.Setup(ctx); err != nil {
	    return err
	}
	defer w.Teardown(context.Background())

	for {
	    if _, err := w.GetAndSubmit(ctx); err != nil {
	        logger.Error("poll cycle failed", "error", err)
	    }
	    time.Sleep(pollInterval)
	}

# Concurrency

GetAndSubmit admits runs up to the configured limit, spawning one goroutine
per admitted run tracked by an internal sync.WaitGroup. Teardown waits for
all of them to finish before returning; it never forcibly cancels a
running submission, only the wait for it.

# Started handshake

Every admitted run's infrastructure launch goes through a one-shot
completion object (see startSignal in submitter.go) standing in for a
supervised-task "started" callback: the Backend must report either an
identifier or an error before the submitter proceeds to record
infrastructure_pid, bounding concurrency on in-flight runs rather than on
merely-submitting ones.
*/
package worker
