package session

import (
	"sync"
	"testing"
)

func TestEmptyStoreSignalsNoReport(t *testing.T) {
	s := NewStore()
	if _, ok := s.Report(DefaultID); ok {
		t.Fatal("fresh store must report empty")
	}
}

func TestSetReportAndReadBack(t *testing.T) {
	s := NewStore()
	s.SetReport("abc", "LDL: 119 mg/dL", "diabetic")
	rec, ok := s.Report("abc")
	if !ok {
		t.Fatal("expected record after SetReport")
	}
	if rec.Report != "LDL: 119 mg/dL" || rec.History != "diabetic" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt not set")
	}
}

// Each ingest replaces the previous record wholesale, history included.
func TestSetReportOverwritesWholesale(t *testing.T) {
	s := NewStore()
	s.SetReport("abc", "first report", "some history")
	s.SetReport("abc", "second report", "")
	rec, _ := s.Report("abc")
	if rec.Report != "second report" || rec.History != "" {
		t.Fatalf("expected wholesale overwrite, got %+v", rec)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore()
	s.SetReport("a", "report A", "")
	s.SetReport("b", "report B", "")
	if rec, _ := s.Report("a"); rec.Report != "report A" {
		t.Fatalf("session a sees %q", rec.Report)
	}
	if rec, _ := s.Report("b"); rec.Report != "report B" {
		t.Fatalf("session b sees %q", rec.Report)
	}
}

func TestResetClearsRecord(t *testing.T) {
	s := NewStore()
	s.SetReport("abc", "report", "")
	s.Reset("abc")
	if _, ok := s.Report("abc"); ok {
		t.Fatal("record should be gone after Reset")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetReport(DefaultID, "report", "history")
		}()
		go func() {
			defer wg.Done()
			s.Report(DefaultID)
		}()
	}
	wg.Wait()
	rec, ok := s.Report(DefaultID)
	if !ok || rec.Report != "report" {
		t.Fatalf("unexpected final record: %+v ok=%v", rec, ok)
	}
}
