// Package moves is the traced lookup chain of the service.
//
// A request flows through two layers, each opening a child of the span it was
// handed in ctx and closing it before returning:
//
//	ingress span (http or grpc package)
//	└── MoveHandler.GetMoveByName   (Handler)
//	    └── lookup moves            (DAO)
//
// Listing every move skips the data-access span: the handler reads the
// store's full table directly through [DAO.AllMoves].
//
// A lookup miss returns an error wrapping [ErrNotFound]. Both spans are still
// closed, and the miss is recorded as the lookup.outcome attribute.
package moves
