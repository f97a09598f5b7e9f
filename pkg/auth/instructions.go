package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowBearerTokenGuide writes step-by-step instructions for obtaining an API bearer token
func ShowBearerTokenGuide(w io.Writer) {
	rule := strings.Repeat("=", 80)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "TWITTER API BEARER TOKEN GUIDE")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "This tool reads timelines through the Twitter API v2 and needs an")
	fmt.Fprintln(w, "app-only bearer token from the developer portal.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 1: Sign in to the developer portal")
	fmt.Fprintln(w, "   - Go to https://developer.twitter.com/en/portal/dashboard")
	fmt.Fprintln(w, "   - Sign in with the account that owns your developer access")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 2: Open your project and app")
	fmt.Fprintln(w, "   - Create a project and an app if you have none yet")
	fmt.Fprintln(w, "   - Select the app under 'Projects & Apps'")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 3: Generate the token")
	fmt.Fprintln(w, "   - Open the 'Keys and tokens' tab")
	fmt.Fprintln(w, "   - Under 'Authentication Tokens', generate or regenerate the Bearer Token")
	fmt.Fprintln(w, "   - Copy it right away; the portal shows it only once")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "STEP 4: Hand it to tweetscraper")
	fmt.Fprintln(w, "   - Run 'tweetscraper auth login' and paste the token, or")
	fmt.Fprintf(w, "   - export %s=<token>, or\n", BearerTokenEnv)
	fmt.Fprintln(w, `   - put {"bearer_token": "<token>"} in config.json`)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SECURITY WARNING:")
	fmt.Fprintln(w, "   - The token grants read access under your app's rate limits")
	fmt.Fprintln(w, "   - Never commit config.json or share the token")
	fmt.Fprintln(w, "   - Regenerate it in the portal if it leaks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// ShowQuickTokenGuide writes a condensed version for experienced users
func ShowQuickTokenGuide(w io.Writer) {
	fmt.Fprintln(w, "\nQuick guide: developer portal -> Projects & Apps -> your app -> Keys and tokens -> Bearer Token")
	fmt.Fprintln(w, "   Type 'help' for detailed instructions")
}
