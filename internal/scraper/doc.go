// Package scraper provides HTTP fetching and HTML parsing for swim result sites.
//
// Two sites are supported. The meet-results site lists each swimmer's meets on
// paginated pages (/swimmer/<id>/meets/?page=N) that link to one result page per
// meet (/results/<meet>/swimmer/<id>/). Result pages embed the meet metadata as
// JSON-LD and list the swims in the table following the "Times" heading.
//
// The swimmer-profile site has one page per swimmer with one table per meet.
//
// Map fans page fetches out over a bounded worker pool.
package scraper
