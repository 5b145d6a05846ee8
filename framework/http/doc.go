// Package http serves a read-only JSON view of a running container.
//
// # Inspector
//
//	inspector := gohttp.NewInspector(logger)
//	inspector.SetContainer(c)
//	http.ListenAndServe(":8000", inspector.Handler())
//
// Every response uses the same envelope:
//
//	{"data": ...}                          one definition or object
//	{"data": [...], "meta": {"count": n}}  a listing
//	{"message": "..."}                     a failure
//
// Unknown ids and singletons that have not been built yet answer 404. The
// handlers only read definitions and the singleton cache; lazy objects stay
// unbuilt however often they are inspected.
//
// # Response
//
// Response wraps http.ResponseWriter with the JSON helpers the handlers use:
//
//	res := gohttp.NewResponse(w)
//	res.List(views, len(views))
//	res.NotFound("No definition %q.", id)
package http
