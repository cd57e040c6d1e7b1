// Package adapter turns Google Drive calls into the six text-producing
// operations published to agents: Search, Read, Create, Update, Delete and
// List.
//
// Each operation performs its remote calls on the caller's goroutine and
// returns a Result. The Result carries a Status so callers can tell an empty
// listing from a failure without parsing Text, and for failures the
// drive.ErrorKind of the cause:
//
//	a := adapter.New(client, logger)
//	r := a.List(ctx, 20)
//	if r.IsError() && r.Kind == drive.KindAuth {
//	    ...
//	}
//	fmt.Println(r.Text)
//
// An Adapter created without a FileService answers every operation with
// NotAuthenticatedText and never touches the network.
package adapter
