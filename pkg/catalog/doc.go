// Package catalog provides read-only access to the storefront catalog:
// book listings, search, featured picks, and category groupings. It is a
// thin, stateless layer over the gateway client; errors surface with the
// gateway's classification untouched.
package catalog
