// Package storage manages the files a request leaves on disk.
//
// A Workspace is created per request. Every artifact the request produces
// (the downloaded video, preview frames) is tracked on it, and Cleanup
// removes them all once the artifacts have been relayed. WriteFileAtomic is
// used for files that outlive a request, such as uploaded cookie files.
//
// Usage:
//
//	ws, err := storage.NewWorkspace(cfg.Download.WorkDir)
//	if err != nil {
//	    return err
//	}
//	defer ws.Cleanup()
//
//	ws.Track(videoPath)
package storage
