// Package static implements browser.Driver over in-memory HTML pages.
//
// Pages are keyed by URL. Locators are evaluated against the parsed
// document: XPath with htmlquery, CSS (and the id and name strategies)
// with goquery. Clicking follows a small set of conventions:
//
//   - <a href> and any element with data-href navigate to that URL.
//   - A submit button or input inside a <form action> navigates to the
//     form's action.
//   - A radio or checkbox input becomes checked.
//   - An element with data-download="name" writes a file called name
//     into the download directory (content from data-content).
//
// Elements with a disabled or hidden attribute are present but not
// clickable. Waits never block: an element is either there or not.
package static
