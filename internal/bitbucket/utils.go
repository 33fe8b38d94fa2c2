package bitbucket

import "strconv"

// ExtractCloneLinks parses the clone links from the repository information and returns the HTTPS and SSH URLs.
func ExtractCloneLinks(clones []CloneLink) (httpLink, sshLink string) {
	for _, clone := range clones {
		switch clone.Name {
		case "https", "http":
			httpLink = clone.Href
		case "ssh":
			sshLink = clone.Href
		}
	}
	return
}

// pageQuery returns the page and pagelen query parameters, leaving out zero values.
func pageQuery(page, pagelen int) map[string]string {
	query := map[string]string{}
	if page > 0 {
		query["page"] = strconv.Itoa(page)
	}
	if pagelen > 0 {
		query["pagelen"] = strconv.Itoa(pagelen)
	}
	return query
}

// pruneNil drops nil values from params, returning a new map.
func pruneNil(params map[string]interface{}) map[string]interface{} {
	pruned := make(map[string]interface{}, len(params))
	for k, v := range params {
		if v != nil {
			pruned[k] = v
		}
	}
	return pruned
}
