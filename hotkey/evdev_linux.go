//go:build linux

package hotkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

const inputEventSize = 24

// evdevSource reads every keyboard under /dev/input directly, so it works
// on X11 and Wayland alike. The user needs read access (the input group).
type evdevSource struct {
	mu    sync.Mutex
	files []*os.File
	stop  chan struct{}
	once  sync.Once
}

func NewEvdev() Source {
	return &evdevSource{stop: make(chan struct{})}
}

func (s *evdevSource) Listen(onPress, onRelease func(Key)) error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	events := make(chan Event, 64)
	var wg sync.WaitGroup

	s.mu.Lock()
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		s.files = append(s.files, f)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.readEvents(f, events)
		}()
	}
	opened := len(s.files)
	s.mu.Unlock()

	if opened == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	defer s.closeFiles()

	readersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(readersDone)
	}()

	for {
		select {
		case <-s.stop:
			return nil
		case <-readersDone:
			select {
			case <-s.stop:
				return nil
			default:
			}
			return errors.New("all keyboard devices closed")
		case ev := <-events:
			dispatch(ev, onPress, onRelease)
		}
	}
}

func (s *evdevSource) readEvents(f *os.File, out chan<- Event) {
	buf := make([]byte, inputEventSize*16)
	for {
		n, err := f.Read(buf)
		if err != nil {
			return
		}
		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))
			if evType != evKey {
				continue
			}

			var ev Event
			switch evValue {
			case keyPress, keyRepeat:
				ev = Event{Key: keyFromEvdev(evCode), Pressed: true}
			case keyRelease:
				ev = Event{Key: keyFromEvdev(evCode)}
			default:
				continue
			}
			select {
			case out <- ev:
			case <-s.stop:
				return
			}
		}
	}
}

// Stop closes the device files, which unblocks the pending reads.
func (s *evdevSource) Stop() {
	s.once.Do(func() {
		close(s.stop)
		s.closeFiles()
	})
}

func (s *evdevSource) closeFiles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		f.Close()
	}
	s.files = nil
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

// isKeyboard treats devices advertising a wide key bitmap as keyboards;
// power buttons and lid switches report only a few bits.
func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

func diagnoseEvdev() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}
	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
