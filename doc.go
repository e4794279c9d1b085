// Package authpage renders the login and register page of a notes
// application and runs its form flow on the server.
//
// Form:
//   - Form owns the email, username and password values, the errors derived
//     from them by Validate and which fields were touched. Errors are always
//     computed but only shown for touched fields.
//   - Submit touches every field. A valid form waits the submit delay,
//     dispatches the AuthenticateFunc once and resets itself.
//
// Redirect guard:
//   - Guard turns a present session identifier into a redirect to the notes
//     route. AuthController evaluates it before rendering any auth page.
//
// Sessions:
//   - Auther logs users in or registers them against the Users repository and
//     issues HS256 tokens. RouteAuthenticator stores them in a cookie and
//     resolves the cookie back into a Session for every request.
package authpage
