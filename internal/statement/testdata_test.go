package statement

const sampleExport = `Account: Adv Plus Banking - Checking ...4821
Description,,Summary Amt.
Beginning balance as of 12/01/2025,,"10,000.00"
Total credits,,"500.00"
Total debits,,"-4,435.32"
Ending balance as of 12/31/2025,,"6,064.68"

Date,Description,Amount,Running Bal.
12/01/2025,Beginning balance as of 12/01/2025,,"10,000.00"
12/05/2025,"PAYROLL DEPOSIT",500.00,"10,500.00"
12/10/2025,"NATIONAL GRID DES:UTIL. BILL ID:0042 INDN:DOE",-185.32,"10,314.68"
12/15/2025,"Green Valley Landscaping Bill Payment","-$1,200.00","9,114.68"
12/20/2025,"Bill Pay Check 5678: Smith Plumbing, LLC",-600.00,"8,514.68"
12/28/2025,"Check 1234",-450.00,"8,064.68"
12/29/2025,"Online Banking transfer to SAV 9911",-2000.00,"6,064.68"
`
