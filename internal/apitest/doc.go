// Package apitest runs an in-memory indexing service for tests.
//
// The server speaks the same routes as the real service and records what it
// receives. Tests can inject failures with FailNext and hold requests with
// Gate to observe in-flight behavior:
//
//	srv := apitest.New(t)
//	srv.SetDirectories(api.DirectoryStatus{Name: "photos", Ready: true})
//	srv.GenerateFiles("photos", 250)
//	release := srv.Gate(apitest.RouteListFiles)
//	defer release()
package apitest
