package rules

import "strings"

// takeoverServices maps CNAME target suffixes of hosting providers where an
// unclaimed name can be re-registered, making a dangling CNAME a takeover
// candidate rather than just a broken alias.
var takeoverServices = map[string]string{
	".s3.amazonaws.com":       "Amazon S3",
	".azurewebsites.net":      "Azure App Service",
	".github.io":              "GitHub Pages",
	".herokuapp.com":          "Heroku",
	".cloudfront.net":         "CloudFront",
	".elasticbeanstalk.com":   "Elastic Beanstalk",
	".trafficmanager.net":     "Azure Traffic Manager",
	".blob.core.windows.net":  "Azure Blob Storage",
	".azureedge.net":          "Azure CDN",
	".pantheonsite.io":        "Pantheon",
	".netlify.app":            "Netlify",
	".ghost.io":               "Ghost",
	".myshopify.com":          "Shopify",
	".surge.sh":               "Surge",
}

// takeoverService returns the provider name for a CNAME target on a
// takeover-susceptible service, or "" when the target is unremarkable.
func takeoverService(cname string) string {
	target := strings.ToLower(strings.TrimSuffix(cname, "."))
	for suffix, name := range takeoverServices {
		if strings.HasSuffix(target, suffix) {
			return name
		}
	}
	return ""
}
