package cs

import "github.com/xtask-project/xtask/internal/wire"

// The four notification reply shapes notHandler's cmd switch expects
// (internal/kernel/notify.go), built here so every push site uses the
// same field layout.

func wireMessageVCReady(handle, bufToken uint32) wire.Message {
	return wire.Message{Cmd: 1, P0: handle, P1: bufToken}
}

func wireMessageRemoteThreadCreated(newHandle, requestingTask uint32) wire.Message {
	return wire.Message{Cmd: 2, P0: newHandle, P1: requestingTask}
}

func wireMessageInboxReady(taskID, bufToken uint32) wire.Message {
	return wire.Message{Cmd: 3, P0: taskID, P1: bufToken}
}

func wireMessageOutboxSent(taskID, result uint32) wire.Message {
	return wire.Message{Cmd: 4, P0: taskID, P1: result}
}
