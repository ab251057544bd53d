package store

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.WriteToFile("foo", []byte("hello")); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	data, n, err := s.ReadFromFile("foo", 0, 5)
	if err != nil {
		t.Fatalf("ReadFromFile: %v", err)
	}
	if n != 5 || string(data) != "hello" {
		t.Errorf("ReadFromFile = %q, %d; want \"hello\", 5", data, n)
	}
}

func TestWriteToFileAtOffsetCreatesHole(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.WriteToFileAtOffset("rec", []byte("XYZ"), 10); err != nil {
		t.Fatalf("WriteToFileAtOffset: %v", err)
	}
	size, err := s.GetFileSize("rec")
	if err != nil {
		t.Fatalf("GetFileSize: %v", err)
	}
	if size != 13 {
		t.Errorf("GetFileSize = %d; want 13", size)
	}
	data, _, err := s.ReadFromFile("rec", 10, 13)
	if err != nil {
		t.Fatalf("ReadFromFile: %v", err)
	}
	if string(data) != "XYZ" {
		t.Errorf("ReadFromFile(10,13) = %q; want \"XYZ\"", data)
	}
}

func TestGetFileSizeMissingFileIsZeroNotError(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	size, err := s.GetFileSize("missing")
	if err != nil {
		t.Errorf("GetFileSize(missing) error = %v; want nil", err)
	}
	if size != 0 {
		t.Errorf("GetFileSize(missing) = %d; want 0", size)
	}
}

func TestDeleteFileMissingIsNotError(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.DeleteFile("missing"); err != nil {
		t.Errorf("DeleteFile(missing) = %v; want nil", err)
	}
}

func TestReadAllConvenienceHelper(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.WriteToFile("whole", []byte("record")); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	data, err := ReadAll(s, "whole")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "record" {
		t.Errorf("ReadAll = %q; want \"record\"", data)
	}
}

func TestReadAllOfMissingFileReturnsNil(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	data, err := ReadAll(s, "missing")
	if err != nil {
		t.Errorf("ReadAll(missing) error = %v; want nil", err)
	}
	if data != nil {
		t.Errorf("ReadAll(missing) = %v; want nil", data)
	}
}
