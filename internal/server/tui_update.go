// ABOUTME: TUI update helpers for server
// ABOUTME: Pushes client snapshots to the TUI on change and once a second
package server

import "time"

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	src := s.config.Source
	switch {
	case s.config.Echo:
		src = "echo"
	case src == "":
		src = "440Hz tone"
	}

	s.tui.Update(ServerStatus{
		Name:    s.config.Name,
		Port:    s.config.Port,
		Source:  src,
		Clients: s.Clients(),
	})
}

// refreshTUI keeps counters current until the server stops
func (s *Server) refreshTUI() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateTUI()
		case <-s.stopChan:
			return
		}
	}
}
