// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"code.hybscloud.com/jobq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStressCommand(t *testing.T) {
	if jobq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	out, err := execute(t, "-p", "4", "-c", "3", "-n", "2000", "-r", "2", "--segment-size", "8", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, "round 1: ok producers=4 consumers=3 jobs=8000 executed=8000 lost=0 duplicated=0")
	assert.Contains(t, out, "round 2: ok")
	assert.Contains(t, out, "jobq_enqueued_total 8000")
	assert.Contains(t, out, "jobq_dequeued_total 8000")
	assert.Contains(t, out, "jobq_pending_jobs 0")
}

func TestStressCommandSingleConsumerChecksOrder(t *testing.T) {
	if jobq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	out, err := execute(t, "-p", "3", "-c", "1", "-n", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "reordered=0")
	assert.Equal(t, 1, strings.Count(out, "round "))
}

func TestStressCommandRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero rounds", []string{"--rounds", "0"}},
		{"zero producers", []string{"--producers", "0"}},
		{"negative prealloc", []string{"--prealloc", "-1"}},
		{"huge segment", []string{"--segment-size", "1073741824"}},
		{"positional arg", []string{"extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
