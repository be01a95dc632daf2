package profile

import "github.com/poldi1405/eruption/internal/logx"

var watchLog = logx.For("profile")

// Watch rereads the descriptor at path each time trigger fires and sends
// the result on the returned channel, buffered so one slow consumer can't
// block the next trigger. There's no filesystem watch here; the
// coordinator translates an incoming SIGHUP into a trigger tick instead,
// which keeps reload driven by an explicit operator action rather than by
// whatever a directory watcher happens to notice. A parse/read failure is
// logged and skipped rather than sent, so a bad edit never reaches the
// binder as a zero-value descriptor.
func Watch(path string, trigger <-chan struct{}) <-chan Descriptor {
	out := make(chan Descriptor, 1)
	go func() {
		for range trigger {
			desc, err := LoadDescriptor(path)
			if err != nil {
				watchLog.Warn("reload failed, keeping running profile", "path", path, "err", err)
				continue
			}
			out <- desc
		}
		close(out)
	}()
	return out
}
