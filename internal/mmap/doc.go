// Package mmap maps local files read-only into memory.
//
// Local blob stores use it so that a loader scanning a row file reads
// straight from the page cache:
//
//	m, err := mmap.Open("regions.jsonl")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile and ignores
// access hints. A Mapping is safe for concurrent reads. Bytes must not be
// used after Close.
package mmap
