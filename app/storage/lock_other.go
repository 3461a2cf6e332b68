//go:build !unix

package storage

// No advisory locking outside unix; concurrent invocations are not guarded.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
