/*
Package retry provides exponential backoff for remote operations made by the
media explorer client.

# Purpose

Two callers need backoff with different shapes:

  - The directory list at startup is retried forever at a fixed 500ms
    interval until the server answers (see [Constant]).
  - The paginated cache consults [Config.Delay] to hold off re-fetching a
    batch whose previous fetch failed, so a sustained outage does not turn
    every visible-item read into a request.

# Retry Behavior

Backoff doubles from InitialBackoff and is capped at MaxBackoff. The
defaults are:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Retrying stops as soon as the caller's context is done. A timeout that
fn hits on its own, such as an HTTP client timeout, is retried like any
other failure. A zero InitialBackoff disables delays entirely.

# Usage

	err := retry.Do(ctx, "list_directories", retry.Constant(500*time.Millisecond),
	    func(ctx context.Context) error {
	        dirs, err = client.ListDirectories(ctx)
	        return err
	    })
*/
package retry
