/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLineHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &lineHandler{level: slog.LevelInfo, w: &sb}
	l := slog.New(h).With(slog.String("component", "nav"))
	l.Info("panel advanced", slog.Int("index", 3))

	out := sb.String()
	if !strings.Contains(out, "INF") || !strings.Contains(out, "panel advanced") {
		t.Fatalf("missing level or message: %q", out)
	}
	if !strings.Contains(out, "component=nav") || !strings.Contains(out, "index=3") {
		t.Fatalf("missing attributes: %q", out)
	}
}

func TestLineHandlerLevelGate(t *testing.T) {
	h := &lineHandler{level: slog.LevelWarn, w: &strings.Builder{}}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}
}

func TestWithGroupPrefixesKeys(t *testing.T) {
	var sb strings.Builder
	base := &lineHandler{level: slog.LevelInfo, w: &sb}
	l := slog.New(base).WithGroup("tap")
	l.Info("classified", slog.String("zone", "forward"))
	if !strings.Contains(sb.String(), "tap.zone=forward") {
		t.Fatalf("expected group-prefixed key, got %q", sb.String())
	}
}
