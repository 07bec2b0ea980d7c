// Package auth provides the route guard middleware for the web application.
//
// The guard runs after the session and visitor middlewares. For each request
// to a protected route it:
//   - waits up to the resolve timeout for the visitor's first identity notification
//   - renders a 503 placeholder with Retry-After while the identity is still resolving
//   - redirects to the sign-in page when nobody is signed in, remembering where
//     to return: the requested URL for GET and HEAD, the page set with ReturnTo,
//     or the local Referer of a form post
//   - passes the request on with the current identity in fiber.Locals otherwise
//
// Usage:
//
//	guard := authmiddleware.New(authmiddleware.Config{SignInPath: "/login", ResolveTimeout: 2 * time.Second})
//	app.Get("/profile", guard, profileHandler)
//
// RedirectIfAuthenticated keeps signed-in visitors away from the sign-in and
// registration pages.
package auth
