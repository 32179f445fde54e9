package metrics

import "testing"

// BenchmarkCollector_Wrote measures the per-write accounting overhead.
func BenchmarkCollector_Wrote(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Wrote(1024, 2048)
	}
}

// BenchmarkCollector_Snapshot measures the cost of taking a snapshot.
func BenchmarkCollector_Snapshot(b *testing.B) {
	c := New()
	c.Connected("127.0.0.1:1883")
	c.Wrote(1024, 1024)
	c.RecordError("test")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Snapshot()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Read(64, 128)
		c.Wrote(64, 64)
		c.RecordError("test")
	}
}
