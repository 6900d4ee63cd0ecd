// Package fs abstracts the few filesystem operations the local blob store
// performs, so tests can inject write, sync and rename failures.
//
// Production code uses fs.Default (the os package):
//
//	f, err := fs.Default.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
//
// Tests wrap it with [FaultyFS]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp-", fs.Fault{FailOnSync: true})
//
// Operations take no context; local syscalls cannot be interrupted.
package fs
