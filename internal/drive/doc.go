// Package drive provides a client for the Google Drive v3 API.
//
// The client covers the calls drivetools needs: listing and searching files,
// reading metadata, downloading stored bytes, exporting Google-native
// documents, uploading new files, replacing file content and deleting files.
//
// Every call passes through a shared token-bucket RateLimiter and is retried
// with exponential backoff when Drive reports rate limiting or the transport
// fails. Failures are returned as *Error values carrying an ErrorKind:
//
//	_, err := client.GetFile(ctx, id)
//	if errors.Is(err, drive.ErrNotFound) {
//	    ...
//	}
//	kind := drive.Classify(err) // drive.KindNotFound
//
// Example usage:
//
//	client, err := drive.NewClient(ctx, tokenSource,
//	    drive.WithRateLimiter(drive.NewRateLimiter(8, 10)),
//	    drive.WithMetrics(provider.Metrics()),
//	)
//	if err != nil {
//	    return err
//	}
//	files, err := client.ListFiles(ctx, &drive.ListOptions{
//	    PageSize: 10,
//	    OrderBy:  "modifiedTime desc",
//	})
package drive
