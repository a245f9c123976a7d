package portal

import "github.com/youpower/greenbutton/internal/selector"

func defaultCandidates() map[Element][]selector.Locator {
	return map[Element][]selector.Locator{
		Username: {
			selector.ID("username"),
			selector.Name("username"),
			selector.CSS("input[type='text']"),
			selector.XPath("//input[@placeholder='Username' or contains(@placeholder, 'user')]"),
		},
		Password: {
			selector.ID("password"),
			selector.Name("password"),
			selector.CSS("input[type='password']"),
			selector.XPath("//input[@placeholder='Password' or contains(@placeholder, 'pass')]"),
		},
		LoginButton: {
			selector.ID("login"),
			selector.XPath("//button[contains(text(), 'Log In') or contains(text(), 'Sign In')]"),
			selector.CSS("button.login-button, input[type='submit']"),
		},
		SuccessIndicator: {
			selector.XPath("//a[contains(text(), 'Energy Usage')]"),
			selector.XPath("//a[contains(text(), 'Account')]"),
			selector.XPath("//a[contains(text(), 'Dashboard')]"),
			selector.XPath("//div[contains(@class, 'dashboard')]"),
		},
		MFAPrompt: {
			selector.CSS("input[autocomplete='one-time-code']"),
			selector.XPath("//*[contains(text(), 'verification code')]"),
			selector.XPath("//*[contains(text(), 'Verify your identity')]"),
		},
		LoginError: {
			selector.CSS("[role='alert']"),
			selector.CSS(".error-message, .login-error"),
			selector.XPath("//*[contains(text(), 'incorrect') or contains(text(), 'invalid')]"),
		},
		DesktopLink: {
			selector.XPath("//a[contains(text(), 'Desktop') or contains(text(), 'Full Site')]"),
			selector.CSS("a.desktop-link"),
		},
		EnergyUsage: {
			selector.XPath("//a[contains(text(), 'Energy Usage')]"),
			selector.XPath("//a[contains(@href, 'energy-usage')]"),
			selector.XPath("//span[contains(text(), 'Energy Usage')]/parent::a"),
			selector.XPath("//div[contains(text(), 'Energy Usage')]"),
		},
		UsageDetails: {
			selector.XPath("//a[contains(text(), 'Energy Usage Details')]"),
			selector.XPath("//a[contains(@href, 'usage-details')]"),
			selector.XPath("//a[contains(text(), 'Usage Details')]"),
			selector.XPath("//span[contains(text(), 'Details')]/parent::a"),
		},
		GreenButton: {
			selector.XPath("//button[contains(text(), 'Green Button')]"),
			selector.XPath("//a[contains(text(), 'Green Button')]"),
			selector.CSS("button.green-button"),
			selector.XPath("//img[contains(@src, 'green-button')]/parent::*"),
			selector.XPath("//div[contains(text(), 'Green Button')]"),
		},
		RangeOption: {
			selector.XPath("//input[@type='radio' and @value='range']"),
			selector.XPath("//input[@type='radio' and contains(@id, 'range')]"),
			selector.XPath("//label[contains(text(), 'range of days')]//input"),
			selector.XPath("//label[contains(text(), 'range')]//input"),
		},
		FromDate: {
			selector.ID("from-date"),
			selector.XPath("//input[contains(@id, 'from')]"),
			selector.XPath("//input[contains(@name, 'from')]"),
			selector.XPath("//label[contains(text(), 'From')]/following-sibling::input"),
			selector.XPath("//label[contains(text(), 'From')]/parent::*/input"),
		},
		ToDate: {
			selector.ID("to-date"),
			selector.XPath("//input[contains(@id, 'to')]"),
			selector.XPath("//input[contains(@name, 'to')]"),
			selector.XPath("//label[contains(text(), 'To')]/following-sibling::input"),
			selector.XPath("//label[contains(text(), 'To')]/parent::*/input"),
		},
		DownloadButton: {
			selector.XPath("//button[contains(text(), 'Download')]"),
			selector.XPath("//a[contains(text(), 'Download')]"),
			selector.CSS("button.download-button"),
			selector.XPath("//input[@type='submit' and contains(@value, 'Download')]"),
		},
	}
}
