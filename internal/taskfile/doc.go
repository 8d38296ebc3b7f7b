// Package taskfile loads task graphs declared in YAML or HCL files.
//
// Every declared task becomes a graph.Task whose action runs its command
// through the shell with stdout and stderr bound to the task's captured
// output:
//
//	title: build
//	tasks:
//	  - name: fetch
//	    command: go mod download
//	  - name: test
//	    command: go test ./...
//	    waiting_for: [fetch]
//
// The HCL form uses one block per task and can read the environment
// through the env object:
//
//	task "test" {
//	  command     = "go test ./..."
//	  waiting_for = ["fetch"]
//	  env         = { HOME_DIR = env.HOME }
//	}
//
// Watcher re-triggers a callback when the file changes on disk.
package taskfile
