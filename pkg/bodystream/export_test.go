package bodystream

// Invalidate marks s invalid. Nothing in the package invalidates streams yet,
// tests use this to exercise the invalid paths.
func Invalidate(s *Stream) { s.invalidate() }
