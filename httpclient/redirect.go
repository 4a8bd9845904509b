package httpclient

// isRedirectStatus reports whether status is one of the HTTP redirect
// codes §4.2's "Retries and redirects" follows automatically.
func isRedirectStatus(status int) bool {
	switch status {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// redirectMethod implements badu-http/cli/utils.go's defaultCheckRedirect
// downgrade rule: 301/302/303 downgrade any non-GET/HEAD method to GET
// (matching every mainstream browser and curl's default), 307/308
// preserve the original method and body.
func redirectMethod(method Method, status int) Method {
	if (status == 301 || status == 302 || status == 303) && method != MethodHead {
		return MethodGet
	}
	return method
}

func redirectBody(method Method, status int, body []byte) []byte {
	if redirectMethod(method, status) == MethodGet {
		return nil
	}
	return body
}

func redirectFields(method Method, status int, fields []FormField) []FormField {
	if redirectMethod(method, status) == MethodGet {
		return nil
	}
	return fields
}
